package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/Fattieportal/boekhouding-saas/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = "tenant-1"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(id string, date time.Time, status domain.EntryStatus, created time.Time) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:   id,
		TenantID:  tenant,
		JournalID: "j1",
		EntryDate: date,
		Reference: id,
		Status:    status,
		Kind:      domain.StandardEntry,
		Lines: []domain.JournalLine{
			{LineID: id + "-1", AccountID: "cash", Debit: decimal.NewFromInt(10), Credit: decimal.Zero, Position: 1},
			{LineID: id + "-2", AccountID: "sales", Debit: decimal.Zero, Credit: decimal.NewFromInt(10), Position: 2},
		},
		AuditFields: domain.NewAuditFields("u1", created),
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "a1", TenantID: tenant, Code: "1000", IsActive: true}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.FindAccountByID(ctx, tenant, "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			return store.SaveAccount(ctx, domain.Account{AccountID: "a1", TenantID: tenant, Code: "1000", IsActive: true})
		})
	})
	require.NoError(t, err)

	acc, err := store.FindAccountByID(ctx, tenant, "a1")
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Code)
}

func TestSaveAccount_DuplicateCode(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "a1", TenantID: tenant, Code: "1000"}))

	err := store.SaveAccount(ctx, domain.Account{AccountID: "a2", TenantID: tenant, Code: "1000"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	// Codes are unique per tenant only.
	assert.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "a3", TenantID: "tenant-2", Code: "1000"}))
}

func TestFindAccountByID_OtherTenant(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "a1", TenantID: tenant, Code: "1000"}))

	_, err := store.FindAccountByID(ctx, "tenant-2", "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListEntries_PaginatesNewestFirst(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	created := day(2024, 6, 1)
	for i, d := range []int{3, 1, 5, 4, 2} {
		e := entry(string(rune('a'+i)), day(2024, 3, d), domain.Posted, created)
		require.NoError(t, store.SaveEntry(ctx, e))
	}

	page1, next, err := store.ListEntries(ctx, tenant, portsrepo.EntryFilter{}, 2, nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, 5, page1[0].EntryDate.Day())
	assert.Equal(t, 4, page1[1].EntryDate.Day())

	page2, next, err := store.ListEntries(ctx, tenant, portsrepo.EntryFilter{}, 2, next)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, page2[0].EntryDate.Day())
	assert.Equal(t, 2, page2[1].EntryDate.Day())

	page3, next, err := store.ListEntries(ctx, tenant, portsrepo.EntryFilter{}, 2, next)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page3, 1)
	assert.Equal(t, 1, page3[0].EntryDate.Day())
}

func TestListEntries_InvalidToken(t *testing.T) {
	store := memory.NewStore()
	bad := "!!not-a-token"
	_, _, err := store.ListEntries(context.Background(), tenant, portsrepo.EntryFilter{}, 10, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMarkPosted_ConflictWhenNotDraft(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	e := entry("e1", day(2024, 3, 1), domain.Posted, day(2024, 3, 1))
	require.NoError(t, store.SaveEntry(ctx, e))

	err := store.MarkPosted(ctx, e)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	e.Status = domain.Reversed
	assert.NoError(t, store.MarkReversed(ctx, e))
	assert.ErrorIs(t, store.MarkReversed(ctx, e), apperrors.ErrConflict)
}

func TestTrialBalance_IgnoresDrafts(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "cash", TenantID: tenant, Code: "1000", AccountType: domain.Asset}))
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "sales", TenantID: tenant, Code: "8000", AccountType: domain.Revenue}))
	require.NoError(t, store.SaveEntry(ctx, entry("e1", day(2024, 3, 1), domain.Posted, day(2024, 3, 1))))
	require.NoError(t, store.SaveEntry(ctx, entry("e2", day(2024, 3, 2), domain.Reversed, day(2024, 3, 2))))
	require.NoError(t, store.SaveEntry(ctx, entry("e3", day(2024, 3, 3), domain.Draft, day(2024, 3, 3))))

	rows, err := store.TrialBalance(ctx, tenant, day(2024, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1000", rows[0].AccountCode)
	assert.True(t, rows[0].Debit.Equal(decimal.NewFromInt(20)))
	assert.True(t, rows[1].Credit.Equal(decimal.NewFromInt(20)))

	drafts, err := store.CountDrafts(ctx, tenant, day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, drafts)
}

func TestAppendPeriodEvent_AssignsSequence(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	first, err := store.AppendPeriodEvent(ctx, domain.PeriodEvent{TenantID: tenant, Year: 2024, Month: 3, Kind: domain.PeriodClosed})
	require.NoError(t, err)
	second, err := store.AppendPeriodEvent(ctx, domain.PeriodEvent{TenantID: tenant, Year: 2024, Month: 3, Kind: domain.PeriodReopened})
	require.NoError(t, err)
	assert.Less(t, first.Sequence, second.Sequence)

	events, err := store.ListPeriodEvents(ctx, tenant, domain.Period{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSaveCalculation_SubmittedQuarterIsFrozen(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	calc := domain.VATCalculation{CalculationID: "c1", TenantID: tenant, Year: 2024, Quarter: 1, Status: domain.VATCalculated}
	require.NoError(t, store.SaveCalculation(ctx, calc))

	calc.Status = domain.VATSubmitted
	require.NoError(t, store.MarkSubmitted(ctx, calc))

	err := store.SaveCalculation(ctx, domain.VATCalculation{CalculationID: "c2", TenantID: tenant, Year: 2024, Quarter: 1, Status: domain.VATCalculated})
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubmitted)
}

func TestSaveBankTransaction_DedupKey(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	txn := domain.BankTransaction{TransactionID: "t1", TenantID: tenant, ConnectionID: "c1", ExternalID: "ext-1", MatchStatus: domain.Unmatched}
	require.NoError(t, store.SaveBankTransaction(ctx, txn))

	txn.TransactionID = "t2"
	assert.ErrorIs(t, store.SaveBankTransaction(ctx, txn), apperrors.ErrDuplicate)

	txn.ConnectionID = "c2"
	assert.NoError(t, store.SaveBankTransaction(ctx, txn))
}

func TestUpdateBankTransactionMatch_OnlyOnce(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	txn := domain.BankTransaction{TransactionID: "t1", TenantID: tenant, ConnectionID: "c1", ExternalID: "ext-1", MatchStatus: domain.Unmatched}
	require.NoError(t, store.SaveBankTransaction(ctx, txn))

	require.NoError(t, txn.Ignore(day(2024, 3, 1)))
	require.NoError(t, store.UpdateBankTransactionMatch(ctx, txn))
	assert.ErrorIs(t, store.UpdateBankTransactionMatch(ctx, txn), apperrors.ErrConflict)
}

func TestListPendingAuditRecords_OrderedAndRelayed(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for _, id := range []string{"03", "01", "02"} {
		require.NoError(t, store.AppendAuditRecord(ctx, domain.AuditRecord{RecordID: id, TenantID: tenant, RelayStatus: domain.RelayPending}))
	}
	require.NoError(t, store.MarkAuditRecordSent(ctx, "01"))
	require.NoError(t, store.IncrementAuditRetry(ctx, "02"))

	pending, err := store.ListPendingAuditRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "02", pending[0].RecordID)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, "03", pending[1].RecordID)

	assert.ErrorIs(t, store.MarkAuditRecordFailed(ctx, "missing"), apperrors.ErrNotFound)
}
