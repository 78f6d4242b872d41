package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(account string, debit, credit string) domain.JournalLine {
	return domain.JournalLine{
		AccountID: account,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
}

func draftEntry(lines ...domain.JournalLine) *domain.JournalEntry {
	for i := range lines {
		lines[i].Position = i + 1
		lines[i].LineID = fmt.Sprintf("line-%d", i+1)
	}
	return &domain.JournalEntry{
		EntryID:   "entry-1",
		TenantID:  "tenant-1",
		JournalID: "journal-1",
		EntryDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Reference: "INV-001",
		Status:    domain.Draft,
		Kind:      domain.StandardEntry,
		Lines:     lines,
	}
}

func TestJournalLine_Validate(t *testing.T) {
	tests := []struct {
		name    string
		line    domain.JournalLine
		wantErr bool
	}{
		{name: "debit only", line: line("a", "100.00", "0")},
		{name: "credit only", line: line("a", "0", "0.01")},
		{name: "both zero", line: line("a", "0", "0"), wantErr: true},
		{name: "both sides", line: line("a", "10", "10"), wantErr: true},
		{name: "negative debit", line: line("a", "-5", "0"), wantErr: true},
		{name: "four decimals", line: line("a", "1.0001", "0")},
		{name: "trailing zeros past four decimals", line: line("a", "0", "2.500000")},
		{name: "five decimals", line: line("a", "1.00005", "0"), wantErr: true},
		{name: "five decimal credit", line: line("a", "0", "0.00001"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidLine)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJournalEntry_PostRejectsAmountsBeyondStoredScale(t *testing.T) {
	// Balanced at five decimals, unbalanced once rounded to the stored four.
	e := draftEntry(
		line("bank", "1.00005", "0"),
		line("bank", "1.00005", "0"),
		line("revenue", "0", "2.0001"),
	)
	require.True(t, e.IsBalanced())

	err := e.Post("user-1", time.Date(2024, time.March, 16, 9, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, apperrors.ErrInvalidLine)
	assert.Equal(t, domain.Draft, e.Status)
}

func TestJournalLine_ValidateVATRateScale(t *testing.T) {
	l := line("revenue", "0", "100")
	rate := decimal.RequireFromString("21.00001")
	l.VATRate = &rate
	assert.ErrorIs(t, l.Validate(), apperrors.ErrInvalidLine)

	rate = decimal.RequireFromString("21")
	assert.NoError(t, l.Validate())
}

func TestJournalEntry_PostBalanced(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"), line("revenue", "0", "100.00"))
	now := time.Date(2024, time.March, 16, 9, 0, 0, 0, time.UTC)

	require.True(t, e.IsBalanced())
	require.NoError(t, e.Post("user-1", now))

	assert.Equal(t, domain.Posted, e.Status)
	require.NotNil(t, e.PostedAt)
	assert.Equal(t, now, *e.PostedAt)
	assert.Equal(t, "user-1", e.PostedBy)
}

func TestJournalEntry_PostUnbalanced(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"), line("revenue", "0", "90.00"))

	err := e.Post("user-1", time.Now())

	assert.ErrorIs(t, err, apperrors.ErrUnbalanced)
	assert.Equal(t, domain.Draft, e.Status)
	assert.Nil(t, e.PostedAt)
}

func TestJournalEntry_PostExactDecimal(t *testing.T) {
	// 0.1 + 0.2 must equal 0.3 exactly.
	e := draftEntry(line("a", "0.1", "0"), line("b", "0.2", "0"), line("c", "0", "0.3"))
	assert.NoError(t, e.Post("user-1", time.Now()))
}

func TestJournalEntry_PostSingleLine(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"))
	assert.ErrorIs(t, e.Post("user-1", time.Now()), apperrors.ErrEmptyEntry)
}

func TestJournalEntry_PostTwice(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"), line("revenue", "0", "100.00"))
	require.NoError(t, e.Post("user-1", time.Now()))
	assert.ErrorIs(t, e.Post("user-1", time.Now()), apperrors.ErrInvalidState)
}

func TestJournalEntry_MarkReversed(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"), line("revenue", "0", "100.00"))
	assert.ErrorIs(t, e.MarkReversed("user-1", time.Now()), apperrors.ErrInvalidState)

	require.NoError(t, e.Post("user-1", time.Now()))
	require.NoError(t, e.MarkReversed("user-1", time.Now()))
	assert.Equal(t, domain.Reversed, e.Status)

	assert.ErrorIs(t, e.MarkReversed("user-1", time.Now()), apperrors.ErrAlreadyReversed)
}

func TestJournalEntry_NewReversal(t *testing.T) {
	e := draftEntry(line("bank", "100.00", "0"), line("vat", "0", "17.36"), line("revenue", "0", "82.64"))
	require.NoError(t, e.Post("user-1", time.Now()))

	n := 0
	newID := func() string { n++; return fmt.Sprintf("new-%d", n) }
	revDate := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)

	rev := e.NewReversal(newID, revDate, "user-2", time.Now())

	assert.Equal(t, "REV-INV-001", rev.Reference)
	assert.Equal(t, domain.Draft, rev.Status)
	assert.Equal(t, domain.ReversalEntry, rev.Kind)
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, e.EntryID, *rev.ReversalOf)
	assert.Equal(t, revDate, rev.EntryDate)
	require.Len(t, rev.Lines, len(e.Lines))
	for i := range e.Lines {
		assert.True(t, e.Lines[i].Debit.Equal(rev.Lines[i].Credit))
		assert.True(t, e.Lines[i].Credit.Equal(rev.Lines[i].Debit))
		assert.Equal(t, e.Lines[i].AccountID, rev.Lines[i].AccountID)
		assert.Equal(t, e.Lines[i].Position, rev.Lines[i].Position)
		assert.NotEqual(t, e.Lines[i].LineID, rev.Lines[i].LineID)
	}
	assert.True(t, rev.IsBalanced())
}

func TestJournalEntry_AccountIDs(t *testing.T) {
	e := draftEntry(line("a", "1", "0"), line("b", "0", "0.5"), line("a", "0", "0.5"))
	assert.Equal(t, []string{"a", "b"}, e.AccountIDs())
}
