package domain_test

import (
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodBounds(t *testing.T) {
	p := domain.Period{Year: 2024, Month: time.February}

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, "2024-02", p.String())
	assert.NoError(t, p.Validate())
	assert.ErrorIs(t, domain.Period{Year: 2024, Month: 13}.Validate(), apperrors.ErrValidation)
}

func TestNewPeriodStatus_LatestEventWins(t *testing.T) {
	p := domain.Period{Year: 2024, Month: time.March}
	events := []domain.PeriodEvent{
		{Sequence: 1, Kind: domain.PeriodClosed, Actor: "u1"},
		{Sequence: 2, Kind: domain.PeriodReopened, Actor: "u2", Reason: "late invoice"},
	}

	st := domain.NewPeriodStatus(p, events)
	assert.True(t, st.IsOpen)
	require.Len(t, st.Closures, 1)
	require.Len(t, st.Reopens, 1)
	assert.Equal(t, "late invoice", st.Reopens[0].Reason)

	events = append(events, domain.PeriodEvent{Sequence: 3, Kind: domain.PeriodClosed, Actor: "u1"})
	st = domain.NewPeriodStatus(p, events)
	assert.False(t, st.IsOpen)
	assert.Len(t, st.Closures, 2)
}

func TestQuarterBounds(t *testing.T) {
	start, end, err := domain.QuarterBounds(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), end)

	_, _, err = domain.QuarterBounds(2024, 5)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMaskIBAN(t *testing.T) {
	assert.Equal(t, "NL91**********4300", domain.MaskIBAN("NL91 ABNA 0417 1643 00"))
	assert.Equal(t, "SHORT", domain.MaskIBAN("short"))
}
