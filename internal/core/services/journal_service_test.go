package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/stretchr/testify/suite"
)

type JournalServiceTestSuite struct {
	ledgerSuite
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (s *JournalServiceTestSuite) TestPost_Balanced() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "121.00"), s.cr("8000", "121.00"))
	s.Equal(domain.Draft, entry.Status)
	s.Len(entry.Lines, 2)
	s.Equal(1, entry.Lines[0].Position)

	posted, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.Require().NoError(err)
	s.Equal(domain.Posted, posted.Status)
	s.Equal(actor, posted.PostedBy)
	s.Require().NotNil(posted.PostedAt)
	s.Equal(s.now, *posted.PostedAt)

	s.assertDecimal("121", s.balance("1000", date(2024, 1, 1), date(2024, 12, 31)))
	s.assertDecimal("121", s.balance("8000", date(2024, 1, 1), date(2024, 12, 31)))
	s.Equal([]domain.AuditAction{domain.ActionEntryPosted}, s.auditActions(domain.EntityJournalEntry, entry.EntryID))
}

func (s *JournalServiceTestSuite) TestPost_Unbalanced() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "100.00"), s.cr("8000", "99.99"))

	_, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)

	stored, err := s.svc.Journal.GetEntry(s.ctx, tenantID, entry.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, stored.Status)
	s.Empty(s.auditActions(domain.EntityJournalEntry, entry.EntryID))
}

func (s *JournalServiceTestSuite) TestPost_ExactDecimalBalance() {
	entry := s.draft(date(2024, 3, 10), "DEC-1",
		s.dr("4000", "0.1"), s.dr("4000", "0.2"), s.cr("1000", "0.3"))

	_, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.NoError(err)
}

func (s *JournalServiceTestSuite) TestPost_SingleLineIsEmpty() {
	entry := s.draft(date(2024, 3, 10), "ONE", s.dr("1000", "10"))

	_, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrEmptyEntry)
}

func (s *JournalServiceTestSuite) TestPost_AlreadyPosted() {
	entry := s.post(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))

	_, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestPost_ConcurrentExactlyOneSucceeds() {
	entry := s.draft(date(2024, 3, 10), "RACE", s.dr("1000", "10"), s.cr("8000", "10"))

	const workers = 12
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.Truef(errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidState), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)
	s.Len(s.auditActions(domain.EntityJournalEntry, entry.EntryID), 1)
}

func (s *JournalServiceTestSuite) TestPost_PeriodLockHeld() {
	entry := s.draft(date(2024, 3, 10), "LOCKED", s.dr("1000", "10"), s.cr("8000", "10"))
	unlock, err := s.locker.TryLock(s.ctx, services.PeriodLockKey(tenantID, domain.Period{Year: 2024, Month: time.March}))
	s.Require().NoError(err)
	defer unlock()

	_, err = s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *JournalServiceTestSuite) TestCreateDraft_Validation() {
	tests := []struct {
		name    string
		req     dto.CreateDraftRequest
		wantErr error
	}{
		{
			name: "line with both sides zero",
			req: dto.CreateDraftRequest{JournalID: s.journals[domain.GeneralJournal], EntryDate: date(2024, 3, 1), Reference: "X",
				Lines: []dto.JournalLineRequest{s.dr("1000", "0"), s.cr("8000", "10")}},
			wantErr: apperrors.ErrInvalidLine,
		},
		{
			name: "negative amount",
			req: dto.CreateDraftRequest{JournalID: s.journals[domain.GeneralJournal], EntryDate: date(2024, 3, 1), Reference: "X",
				Lines: []dto.JournalLineRequest{s.dr("1000", "-10"), s.cr("8000", "10")}},
			wantErr: apperrors.ErrInvalidLine,
		},
		{
			name: "more decimals than stored",
			req: dto.CreateDraftRequest{JournalID: s.journals[domain.GeneralJournal], EntryDate: date(2024, 3, 1), Reference: "X",
				Lines: []dto.JournalLineRequest{s.dr("1000", "1.00005"), s.dr("1000", "1.00005"), s.cr("8000", "2.0001")}},
			wantErr: apperrors.ErrInvalidLine,
		},
		{
			name: "unknown account",
			req: dto.CreateDraftRequest{JournalID: s.journals[domain.GeneralJournal], EntryDate: date(2024, 3, 1), Reference: "X",
				Lines: []dto.JournalLineRequest{{AccountID: "nope", Debit: dec("10")}, s.cr("8000", "10")}},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "unknown journal",
			req: dto.CreateDraftRequest{JournalID: "nope", EntryDate: date(2024, 3, 1), Reference: "X",
				Lines: []dto.JournalLineRequest{s.dr("1000", "10"), s.cr("8000", "10")}},
			wantErr: apperrors.ErrValidation,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Journal.CreateDraft(s.ctx, tenantID, tt.req, actor)
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *JournalServiceTestSuite) TestCreateDraft_InactiveAccount() {
	s.Require().NoError(s.svc.Account.DeactivateAccount(s.ctx, tenantID, s.accounts["4000"], actor))

	_, err := s.svc.Journal.CreateDraft(s.ctx, tenantID, dto.CreateDraftRequest{
		JournalID: s.journals[domain.GeneralJournal],
		EntryDate: date(2024, 3, 1),
		Reference: "EXP",
		Lines:     []dto.JournalLineRequest{s.dr("4000", "10"), s.cr("1000", "10")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *JournalServiceTestSuite) TestCreateDraft_OtherTenantAccount() {
	_, err := s.svc.Journal.CreateDraft(s.ctx, "tenant-2", dto.CreateDraftRequest{
		JournalID: s.journals[domain.GeneralJournal],
		EntryDate: date(2024, 3, 1),
		Reference: "X",
		Lines:     []dto.JournalLineRequest{s.dr("1000", "10"), s.cr("8000", "10")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *JournalServiceTestSuite) TestUpdateDraft() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))

	updated, err := s.svc.Journal.UpdateDraft(s.ctx, tenantID, entry.EntryID, dto.UpdateDraftRequest{
		EntryDate: date(2024, 4, 2),
		Reference: "INV-1b",
		Lines:     []dto.JournalLineRequest{s.dr("1000", "20"), s.cr("8000", "20")},
	}, actor)
	s.Require().NoError(err)
	s.Equal(time.April, updated.EntryDate.Month())
	s.Equal("INV-1b", updated.Reference)
	s.assertDecimal("20", updated.Lines[0].Debit)

	_, err = s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.UpdateDraft(s.ctx, tenantID, entry.EntryID, dto.UpdateDraftRequest{
		EntryDate: date(2024, 4, 2),
		Reference: "INV-1c",
		Lines:     []dto.JournalLineRequest{s.dr("1000", "20"), s.cr("8000", "20")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestDeleteDraft() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))
	s.Require().NoError(s.svc.Journal.DeleteDraft(s.ctx, tenantID, entry.EntryID, actor))

	_, err := s.svc.Journal.GetEntry(s.ctx, tenantID, entry.EntryID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.Equal([]domain.AuditAction{domain.ActionEntryDeleted}, s.auditActions(domain.EntityJournalEntry, entry.EntryID))

	posted := s.post(date(2024, 3, 11), "INV-2", s.dr("1000", "10"), s.cr("8000", "10"))
	s.ErrorIs(s.svc.Journal.DeleteDraft(s.ctx, tenantID, posted.EntryID, actor), apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestReverse() {
	source := s.post(date(2024, 3, 10), "INV-1", s.dr("1000", "121"), s.cr("8000", "121"))

	reversal, err := s.svc.Journal.Reverse(s.ctx, tenantID, source.EntryID, actor, time.Time{})
	s.Require().NoError(err)
	s.Equal(domain.Posted, reversal.Status)
	s.Equal(domain.ReversalEntry, reversal.Kind)
	s.Equal("REV-INV-1", reversal.Reference)
	s.Equal(source.EntryDate, reversal.EntryDate)
	s.Require().NotNil(reversal.ReversalOf)
	s.Equal(source.EntryID, *reversal.ReversalOf)
	s.assertDecimal("121", reversal.Lines[0].Credit)
	s.assertDecimal("121", reversal.Lines[1].Debit)

	stored, err := s.svc.Journal.GetEntry(s.ctx, tenantID, source.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Reversed, stored.Status)
	s.Require().NotNil(stored.ReversedByID)
	s.Equal(reversal.EntryID, *stored.ReversedByID)

	// Both entries stay in the ledger and cancel out.
	s.assertDecimal("0", s.balance("1000", date(2024, 1, 1), date(2024, 12, 31)))
	s.Equal([]domain.AuditAction{domain.ActionEntryPosted, domain.ActionEntryReversed},
		s.auditActions(domain.EntityJournalEntry, source.EntryID))

	_, err = s.svc.Journal.Reverse(s.ctx, tenantID, source.EntryID, actor, time.Time{})
	s.ErrorIs(err, apperrors.ErrAlreadyReversed)

	_, err = s.svc.Journal.Reverse(s.ctx, tenantID, reversal.EntryID, actor, time.Time{})
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestReverse_Draft() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))

	_, err := s.svc.Journal.Reverse(s.ctx, tenantID, entry.EntryID, actor, time.Time{})
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestReverse_IntoOpenPeriodAfterClosure() {
	source := s.post(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))
	_, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Reverse(s.ctx, tenantID, source.EntryID, actor, time.Time{})
	s.ErrorIs(err, apperrors.ErrPeriodClosed)

	reversal, err := s.svc.Journal.Reverse(s.ctx, tenantID, source.EntryID, actor, date(2024, 4, 1))
	s.Require().NoError(err)
	s.Equal(time.April, reversal.EntryDate.Month())
	s.assertDecimal("10", s.balance("1000", date(2024, 3, 1), date(2024, 3, 31)))
	s.assertDecimal("0", s.balance("1000", date(2024, 3, 1), date(2024, 4, 30)))
}

func (s *JournalServiceTestSuite) TestReverse_InactiveAccountAllowed() {
	source := s.post(date(2024, 3, 10), "EXP-1", s.dr("4000", "10"), s.cr("1000", "10"))
	s.Require().NoError(s.svc.Account.DeactivateAccount(s.ctx, tenantID, s.accounts["4000"], actor))

	_, err := s.svc.Journal.Reverse(s.ctx, tenantID, source.EntryID, actor, time.Time{})
	s.NoError(err)
}

func (s *JournalServiceTestSuite) TestListEntries_Pagination() {
	for d := 1; d <= 5; d++ {
		s.post(date(2024, 3, d), "E", s.dr("1000", "1"), s.cr("8000", "1"))
	}
	s.draft(date(2024, 3, 6), "D", s.dr("1000", "1"), s.cr("8000", "1"))

	posted := domain.Posted
	page, err := s.svc.Journal.ListEntries(s.ctx, tenantID, dto.ListEntriesParams{Status: &posted, Limit: 3})
	s.Require().NoError(err)
	s.Len(page.Entries, 3)
	s.Equal(5, page.Entries[0].EntryDate.Day())
	s.Require().NotNil(page.NextToken)

	page, err = s.svc.Journal.ListEntries(s.ctx, tenantID, dto.ListEntriesParams{Status: &posted, Limit: 3, NextToken: page.NextToken})
	s.Require().NoError(err)
	s.Len(page.Entries, 2)
	s.Nil(page.NextToken)
}

func (s *JournalServiceTestSuite) TestAccountBalance_UsesNormalSide() {
	s.post(date(2024, 3, 10), "INV-1", s.dr("1300", "100"), s.cr("8000", "100"))
	s.post(date(2024, 3, 20), "PAY-1", s.dr("1000", "60"), s.cr("1300", "60"))

	s.assertDecimal("40", s.balance("1300", date(2024, 1, 1), date(2024, 12, 31)))
	s.assertDecimal("100", s.balance("8000", date(2024, 1, 1), date(2024, 12, 31)))
	s.assertDecimal("0", s.balance("1600", date(2024, 1, 1), date(2024, 12, 31)))
}
