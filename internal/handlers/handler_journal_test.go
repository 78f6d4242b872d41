package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JournalHandlerTestSuite struct {
	handlerSuite
}

func TestJournalHandler(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}

const draftBody = `{
	"journalID": "jrn-1",
	"entryDate": "2024-03-15T00:00:00Z",
	"reference": "MEM-1",
	"lines": [
		{"accountID": "1000", "debit": "100.00"},
		{"accountID": "4000", "credit": "100.00"}
	]
}`

func (s *JournalHandlerTestSuite) TestCreateDraft() {
	entry := &domain.JournalEntry{EntryID: "e-1", Status: domain.Draft}
	s.journals.On("CreateDraft", mock.Anything, testTenantID, mock.MatchedBy(func(r dto.CreateDraftRequest) bool {
		return r.Reference == "MEM-1" && len(r.Lines) == 2 && r.Lines[0].Debit.Equal(decimal.NewFromInt(100))
	}), testUserID).Return(entry, nil).Once()

	w := s.do(http.MethodPost, "/entries", draftBody)

	s.Equal(http.StatusCreated, w.Code)
	var got domain.JournalEntry
	s.decode(w, &got)
	s.Equal("e-1", got.EntryID)
}

func (s *JournalHandlerTestSuite) TestCreateDraft_NegativeAmountRejected() {
	body := `{"journalID":"jrn-1","entryDate":"2024-03-15T00:00:00Z","reference":"X",
		"lines":[{"accountID":"1000","debit":"-5"},{"accountID":"4000","credit":"5"}]}`

	w := s.do(http.MethodPost, "/entries", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "decimal_gte0")
}

func (s *JournalHandlerTestSuite) TestCreateDraft_TooManyDecimalsRejected() {
	body := `{"journalID":"jrn-1","entryDate":"2024-03-15T00:00:00Z","reference":"X",
		"lines":[{"accountID":"1000","debit":"1.00005"},{"accountID":"1000","debit":"1.00005"},{"accountID":"4000","credit":"2.0001"}]}`

	w := s.do(http.MethodPost, "/entries", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "decimal_scale")
}

func (s *JournalHandlerTestSuite) TestPost_ErrorMapping() {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unbalanced", fmt.Errorf("%w: debit 100 credit 90", apperrors.ErrUnbalanced), http.StatusUnprocessableEntity},
		{"single line", apperrors.ErrEmptyEntry, http.StatusBadRequest},
		{"period closed", fmt.Errorf("%w: 2024-03", apperrors.ErrPeriodClosed), http.StatusConflict},
		{"concurrent post", apperrors.ErrConflict, http.StatusConflict},
		{"already posted", apperrors.ErrInvalidState, http.StatusConflict},
		{"unknown entry", apperrors.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.journals.On("Post", mock.Anything, testTenantID, "e-1", testUserID).Return(nil, tt.err).Once()

			w := s.do(http.MethodPost, "/entries/e-1/post", nil)
			s.Equal(tt.want, w.Code)
		})
	}
}

func (s *JournalHandlerTestSuite) TestReverse_DefaultsToZeroDate() {
	reversal := &domain.JournalEntry{EntryID: "e-2", Kind: domain.ReversalEntry}
	s.journals.On("Reverse", mock.Anything, testTenantID, "e-1", testUserID, time.Time{}).Return(reversal, nil).Once()

	w := s.do(http.MethodPost, "/entries/e-1/reverse", nil)
	s.Equal(http.StatusCreated, w.Code)
}

func (s *JournalHandlerTestSuite) TestReverse_WithDate() {
	date := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.journals.On("Reverse", mock.Anything, testTenantID, "e-1", testUserID, mock.MatchedBy(date.Equal)).
		Return(nil, apperrors.ErrAlreadyReversed).Once()

	w := s.do(http.MethodPost, "/entries/e-1/reverse", `{"reversalDate":"2024-04-01T00:00:00Z"}`)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *JournalHandlerTestSuite) TestListEntries_PassesFilters() {
	next := "token-2"
	s.journals.On("ListEntries", mock.Anything, testTenantID, mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.Limit == 5 && p.Status != nil && *p.Status == domain.Posted &&
			p.NextToken != nil && *p.NextToken == "token-1"
	})).Return(&dto.ListEntriesResponse{Entries: []domain.JournalEntry{}, NextToken: &next}, nil).Once()

	w := s.do(http.MethodGet, "/entries?status=POSTED&limit=5&nextToken=token-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	s.decode(w, &resp)
	s.Require().NotNil(resp.NextToken)
	s.Equal("token-2", *resp.NextToken)
}

func (s *JournalHandlerTestSuite) TestListEntries_InvalidStatus() {
	w := s.do(http.MethodGet, "/entries?status=OPEN", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *JournalHandlerTestSuite) TestDeleteDraft_NotDraft() {
	s.journals.On("DeleteDraft", mock.Anything, testTenantID, "e-1", testUserID).Return(apperrors.ErrInvalidState).Once()

	w := s.do(http.MethodDelete, "/entries/e-1", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *JournalHandlerTestSuite) TestCreateJournal() {
	req := dto.CreateJournalRequest{Code: "BNK", Name: "Bank", Type: domain.BankJournal}
	s.journals.On("CreateJournal", mock.Anything, testTenantID, req, testUserID).
		Return(&domain.Journal{JournalID: "j-1", Code: "BNK", Type: domain.BankJournal, IsActive: true}, nil).Once()

	w := s.do(http.MethodPost, "/journals", req)
	s.Equal(http.StatusCreated, w.Code)
}
