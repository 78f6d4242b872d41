package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := EntryCursor{
		EntryDate: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 5, 15, 14, 30, 45, 123456789, time.UTC),
		EntryID:   "0d4c7a4e-6b1e-4c43-9d8b-4f3b0c2f7e11",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "=", "token must be safe in a query string")

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, cursor.EntryDate.Equal(decoded.EntryDate))
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.EntryID, decoded.EntryID)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "base64 decode")

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte("2024-05-15T00:00:00Z")))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "split")

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte("notadate|2024-05-15T00:00:00Z|id")))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "entry date")
}

func TestEntryCursor_After(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	c := EntryCursor{EntryDate: day, CreatedAt: created, EntryID: "m"}

	assert.True(t, c.After(day.AddDate(0, 0, -1), created, "z"), "older entry date comes later")
	assert.False(t, c.After(day.AddDate(0, 0, 1), created, "a"))
	assert.True(t, c.After(day, created.Add(-time.Second), "z"))
	assert.True(t, c.After(day, created, "a"))
	assert.False(t, c.After(day, created, "m"), "the cursor row itself is excluded")
}
