package services_test

import (
	"testing"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/stretchr/testify/suite"
)

type PeriodServiceTestSuite struct {
	ledgerSuite
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}

func (s *PeriodServiceTestSuite) TestClosePeriod_BlocksPostings() {
	s.post(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))

	closure, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)
	s.Equal(3, closure.Month)
	s.Equal(actor, closure.ClosedBy)
	s.Equal(s.now, closure.ClosedAt)
	s.False(closure.Implicit)

	open, err := s.svc.Period.IsPeriodOpen(s.ctx, tenantID, date(2024, 3, 31))
	s.Require().NoError(err)
	s.False(open)
	open, err = s.svc.Period.IsPeriodOpen(s.ctx, tenantID, date(2024, 4, 1))
	s.Require().NoError(err)
	s.True(open)

	_, err = s.svc.Journal.CreateDraft(s.ctx, tenantID, dto.CreateDraftRequest{
		JournalID: s.journals[domain.GeneralJournal],
		EntryDate: date(2024, 3, 15),
		Reference: "LATE",
		Lines:     []dto.JournalLineRequest{s.dr("1000", "10"), s.cr("8000", "10")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)

	s.Equal([]domain.AuditAction{domain.ActionPeriodClosed}, s.auditActions(domain.EntityPeriod, "2024-03"))
}

func (s *PeriodServiceTestSuite) TestClosePeriod_DraftsBlockClosure() {
	entry := s.draft(date(2024, 3, 10), "INV-1", s.dr("1000", "10"), s.cr("8000", "10"))

	_, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.ErrorIs(err, apperrors.ErrOpenDraftsExist)

	s.Require().NoError(s.svc.Journal.DeleteDraft(s.ctx, tenantID, entry.EntryID, actor))
	_, err = s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.NoError(err)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_Twice() {
	_, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)

	_, err = s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.ErrorIs(err, apperrors.ErrAlreadyClosed)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_InvalidMonth() {
	_, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 13, actor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *PeriodServiceTestSuite) TestReopenPeriod() {
	_, err := s.svc.Period.ReopenPeriod(s.ctx, tenantID, 2024, 3, actor, "correction")
	s.ErrorIs(err, apperrors.ErrNotClosed)

	_, err = s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)

	_, err = s.svc.Period.ReopenPeriod(s.ctx, tenantID, 2024, 3, actor, "   ")
	s.ErrorIs(err, apperrors.ErrValidation)

	reopen, err := s.svc.Period.ReopenPeriod(s.ctx, tenantID, 2024, 3, actor, "missing invoice")
	s.Require().NoError(err)
	s.Equal("missing invoice", reopen.Reason)

	// Postings are accepted again.
	s.post(date(2024, 3, 15), "LATE", s.dr("1000", "10"), s.cr("8000", "10"))

	_, err = s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, tenantID, 2024, 3)
	s.Require().NoError(err)
	s.False(status.IsOpen)
	s.Len(status.Closures, 2)
	s.Len(status.Reopens, 1)
	s.Equal([]domain.AuditAction{domain.ActionPeriodClosed, domain.ActionPeriodReopened, domain.ActionPeriodClosed},
		s.auditActions(domain.EntityPeriod, "2024-03"))
}

func (s *PeriodServiceTestSuite) TestGetPeriodStatus_NeverClosed() {
	status, err := s.svc.Period.GetPeriodStatus(s.ctx, tenantID, 2024, 7)
	s.Require().NoError(err)
	s.True(status.IsOpen)
	s.Empty(status.Closures)
	s.Empty(status.Reopens)
}

func (s *PeriodServiceTestSuite) TestPeriodsAreIsolatedPerTenant() {
	_, err := s.svc.Period.ClosePeriod(s.ctx, tenantID, 2024, 3, actor)
	s.Require().NoError(err)

	open, err := s.svc.Period.IsPeriodOpen(s.ctx, "tenant-2", date(2024, 3, 1))
	s.Require().NoError(err)
	s.True(open)
}
