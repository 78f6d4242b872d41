package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
)

const timeFormat = time.RFC3339Nano

// EntryCursor is the position after the last entry of a page. Entries are listed by
// entry date, then creation time, then id, all descending.
type EntryCursor struct {
	EntryDate time.Time
	CreatedAt time.Time
	EntryID   string
}

// After reports whether an entry with the given keys sorts after the cursor.
func (c EntryCursor) After(entryDate, createdAt time.Time, entryID string) bool {
	if !entryDate.Equal(c.EntryDate) {
		return entryDate.Before(c.EntryDate)
	}
	if !createdAt.Equal(c.CreatedAt) {
		return createdAt.Before(c.CreatedAt)
	}
	return entryID < c.EntryID
}

// EncodeToken creates a URL-safe token from the sort keys of the last entry on a page.
func EncodeToken(c EntryCursor) string {
	tokenStr := strings.Join([]string{c.EntryDate.Format(timeFormat), c.CreatedAt.Format(timeFormat), c.EntryID}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a token produced by EncodeToken. Malformed tokens yield apperrors.ErrValidation.
func DecodeToken(token string) (EntryCursor, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return EntryCursor{}, fmt.Errorf("%w: invalid pagination token (base64 decode)", apperrors.ErrValidation)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 || parts[2] == "" {
		return EntryCursor{}, fmt.Errorf("%w: invalid pagination token (split)", apperrors.ErrValidation)
	}

	entryDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return EntryCursor{}, fmt.Errorf("%w: invalid pagination token (entry date)", apperrors.ErrValidation)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return EntryCursor{}, fmt.Errorf("%w: invalid pagination token (created at)", apperrors.ErrValidation)
	}
	return EntryCursor{EntryDate: entryDate, CreatedAt: createdAt, EntryID: parts[2]}, nil
}
