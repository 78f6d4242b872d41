package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/stretchr/testify/assert"
)

type syncCall struct {
	connectionID string
	from, to     time.Time
	actor        string
}

// fakeBank implements the three calls the job makes; anything else panics.
type fakeBank struct {
	portssvc.BankSvcFacade
	mu       sync.Mutex
	conns    []domain.BankConnection
	failing  map[string]bool
	syncs    []syncCall
	matching []string
}

func (f *fakeBank) ListSyncableConnections(context.Context) ([]domain.BankConnection, error) {
	return f.conns, nil
}

func (f *fakeBank) Sync(_ context.Context, _ string, connectionID string, from, to time.Time, actor string) (*domain.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, syncCall{connectionID: connectionID, from: from, to: to, actor: actor})
	if f.failing[connectionID] {
		return &domain.SyncResult{ConnectionID: connectionID, Status: domain.SyncFailed}, errors.New("provider down")
	}
	return &domain.SyncResult{ConnectionID: connectionID, Imported: 1, Status: domain.SyncSucceeded}, nil
}

func (f *fakeBank) AutoMatchUnmatched(_ context.Context, _ string, connectionID string, _ string) ([]domain.AutoMatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matching = append(f.matching, connectionID)
	return []domain.AutoMatchResult{{TransactionID: "t1", Outcome: domain.OutcomeMatched}}, nil
}

func TestBankSync_RunOnce(t *testing.T) {
	bank := &fakeBank{
		conns: []domain.BankConnection{
			{ConnectionID: "c1", TenantID: "t1", Status: domain.ConnectionActive},
			{ConnectionID: "c2", TenantID: "t1", Status: domain.ConnectionError},
			{ConnectionID: "c3", TenantID: "t2", Status: domain.ConnectionActive},
		},
		failing: map[string]bool{"c2": true},
	}
	j := NewBankSync(bank, time.Hour, 3, 2)
	j.clock = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }

	assert.Equal(t, 2, j.RunOnce(context.Background()))

	assert.Len(t, bank.syncs, 3)
	for _, c := range bank.syncs {
		assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), c.from)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), c.to)
		assert.Equal(t, SystemActor, c.actor)
	}
	assert.ElementsMatch(t, []string{"c1", "c3"}, bank.matching)
}

func TestBankSync_StopEndsStart(t *testing.T) {
	j := NewBankSync(&fakeBank{}, time.Hour, 1, 1)
	done := make(chan struct{})
	go func() {
		j.Start(context.Background())
		close(done)
	}()
	j.Stop()
	j.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
