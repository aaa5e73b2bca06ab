package watcher

import (
	"context"
	"errors"
	"testing"

	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(ledgerService *fakeLedger, rec *fakeReconciler, idx *fakeIndex, cursorRepo *fakeCursorRepo, deploymentBlock uint64) scanner {
	s := scanner{
		reconciler:      rec,
		elastic:         idx,
		cursorRepo:      cursorRepo,
		cache:           cache.New(cache.NoExpiration, cache.NoExpiration),
		deploymentBlock: deploymentBlock,
	}
	if ledgerService != nil {
		s.ledger = ledgerService
	}
	return s
}

func TestScanner_TickAdvancesCursorToTip(t *testing.T) {
	events := []entity.SettlementEvent{{TokenId: "42", TxHash: "0xaa"}}
	ledgerService := &fakeLedger{
		tip:  110,
		logs: map[string][]entity.SettlementEvent{rangeKey(101, 110): events},
	}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	cursorRepo := &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}

	s := newTestScanner(ledgerService, rec, idx, cursorRepo, 0)

	require.NoError(t, s.tick(context.Background()))

	require.Len(t, rec.batches, 1)
	assert.Equal(t, events, rec.batches[0])

	persisted := idx.allPersisted()
	require.Len(t, persisted, 1)
	c, ok := persisted[0].Entity.(entity.ScanCursor)
	require.True(t, ok)
	assert.Equal(t, uint64(110), c.Height)
}

func TestScanner_TickNoopWhenTipNotAhead(t *testing.T) {
	ledgerService := &fakeLedger{tip: 100}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	cursorRepo := &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}

	s := newTestScanner(ledgerService, rec, idx, cursorRepo, 0)

	require.NoError(t, s.tick(context.Background()))

	assert.Empty(t, rec.batches)
	assert.Empty(t, idx.persisted)
}

func TestScanner_TickDoesNotAdvanceOnFetchError(t *testing.T) {
	ledgerService := &fakeLedger{tip: 110, logsErr: errors.New("node unavailable")}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	cursorRepo := &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}

	s := newTestScanner(ledgerService, rec, idx, cursorRepo, 0)

	require.Error(t, s.tick(context.Background()))

	assert.Empty(t, rec.batches)
	assert.Empty(t, idx.persisted)
}

func TestScanner_TickDoesNotAdvanceOnTipError(t *testing.T) {
	ledgerService := &fakeLedger{tipErr: errors.New("node unavailable")}
	idx := &fakeIndex{}
	s := newTestScanner(ledgerService, &fakeReconciler{}, idx, &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}, 0)

	require.Error(t, s.tick(context.Background()))
	assert.Empty(t, idx.persisted)
}

func TestScanner_CursorSeedsFromDeploymentBlock(t *testing.T) {
	ledgerService := &fakeLedger{
		tip:  510,
		logs: map[string][]entity.SettlementEvent{rangeKey(501, 510): nil},
	}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	cursorRepo := &fakeCursorRepo{err: repository.ErrCursorNotFound}

	s := newTestScanner(ledgerService, rec, idx, cursorRepo, 500)

	require.NoError(t, s.tick(context.Background()))

	assert.Contains(t, ledgerService.calls, "GetSettlementLogs "+rangeKey(501, 510))
}

func TestScanner_CursorStoreOverridesDeploymentBlock(t *testing.T) {
	ledgerService := &fakeLedger{
		tip:  810,
		logs: map[string][]entity.SettlementEvent{rangeKey(801, 810): nil},
	}
	cursorRepo := &fakeCursorRepo{cursor: entity.ScanCursor{Height: 800}}

	s := newTestScanner(ledgerService, &fakeReconciler{}, &fakeIndex{}, cursorRepo, 500)

	require.NoError(t, s.tick(context.Background()))

	assert.Contains(t, ledgerService.calls, "GetSettlementLogs "+rangeKey(801, 810))
	assert.NotContains(t, ledgerService.calls, "GetSettlementLogs "+rangeKey(501, 810))
}

func TestScanner_TickNoopWithoutLedger(t *testing.T) {
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	s := newTestScanner(nil, rec, idx, &fakeCursorRepo{}, 0)

	require.NoError(t, s.tick(context.Background()))

	assert.Empty(t, rec.batches)
	assert.Empty(t, idx.persisted)
}

func TestScanner_CursorMonotonicAcrossTicks(t *testing.T) {
	ledgerService := &fakeLedger{
		tip: 110,
		logs: map[string][]entity.SettlementEvent{
			rangeKey(101, 110): {{TokenId: "1", TxHash: "0x01"}},
			rangeKey(111, 120): {{TokenId: "2", TxHash: "0x02"}},
		},
	}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}
	cursorRepo := &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}

	s := newTestScanner(ledgerService, rec, idx, cursorRepo, 0)

	require.NoError(t, s.tick(context.Background()))

	ledgerService.tip = 120
	require.NoError(t, s.tick(context.Background()))

	require.Len(t, rec.batches, 2)
	assert.Contains(t, ledgerService.calls, "GetSettlementLogs "+rangeKey(111, 120))

	persisted := idx.allPersisted()
	require.Len(t, persisted, 2)
	assert.Equal(t, uint64(110), persisted[0].Entity.(entity.ScanCursor).Height)
	assert.Equal(t, uint64(120), persisted[1].Entity.(entity.ScanCursor).Height)
}

func TestScanner_ScanRangeDoesNotMoveCursor(t *testing.T) {
	events := []entity.SettlementEvent{{TokenId: "9", TxHash: "0x09"}}
	ledgerService := &fakeLedger{
		logs: map[string][]entity.SettlementEvent{rangeKey(50, 60): events},
	}
	rec := &fakeReconciler{}
	idx := &fakeIndex{}

	s := newTestScanner(ledgerService, rec, idx, &fakeCursorRepo{cursor: entity.ScanCursor{Height: 100}}, 0)

	require.NoError(t, s.ScanRange(context.Background(), 50, 60))

	require.Len(t, rec.batches, 1)
	assert.Equal(t, events, rec.batches[0])
	assert.Empty(t, idx.persisted)
}

func TestScanner_ScanRangeWithoutLedger(t *testing.T) {
	s := newTestScanner(nil, &fakeReconciler{}, &fakeIndex{}, &fakeCursorRepo{}, 0)

	err := s.ScanRange(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrLedgerNotConfigured)
}
