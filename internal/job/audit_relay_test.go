package job_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/job"
	"github.com/Fattieportal/boekhouding-saas/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAudit(ctx context.Context, record domain.AuditRecord) error {
	args := m.Called(ctx, record.RecordID)
	return args.Error(0)
}

func seedAudit(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.AppendAuditRecord(context.Background(), domain.AuditRecord{
			RecordID:    id,
			TenantID:    "tenant-1",
			RelayStatus: domain.RelayPending,
		}))
	}
}

func TestAuditRelay_SendsPendingRecords(t *testing.T) {
	store := memory.NewStore()
	seedAudit(t, store, "01", "02")
	pub := new(MockPublisher)
	pub.On("PublishAudit", mock.Anything, "01").Return(nil).Once()
	pub.On("PublishAudit", mock.Anything, "02").Return(nil).Once()

	relay := job.NewAuditRelay(store, pub, 0, 3)
	assert.Equal(t, 2, relay.RelayOnce(context.Background()))

	pending, err := store.ListPendingAuditRecords(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	pub.AssertExpectations(t)
}

func TestAuditRelay_MarksFailedAfterMaxRetries(t *testing.T) {
	store := memory.NewStore()
	seedAudit(t, store, "01")
	pub := new(MockPublisher)
	pub.On("PublishAudit", mock.Anything, "01").Return(errors.New("broker down"))

	relay := job.NewAuditRelay(store, pub, 0, 2)
	ctx := context.Background()

	assert.Equal(t, 0, relay.RelayOnce(ctx))
	pending, err := store.ListPendingAuditRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	assert.Equal(t, 0, relay.RelayOnce(ctx))
	pending, err = store.ListPendingAuditRecords(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A Failed record is not retried.
	assert.Equal(t, 0, relay.RelayOnce(ctx))
	pub.AssertNumberOfCalls(t, "PublishAudit", 2)
}
