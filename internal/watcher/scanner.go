package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/artfolio/marketplace-chain-sync/internal/ledger"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const cursorCacheKey = "scanCursorHeight"

var ErrLedgerNotConfigured = errors.New("ledger is not configured")

// Scanner owns the scan watermark and drives incremental settlement scans.
// The cursor only advances once the batch it unlocked has been applied, so
// a failed tick replays its full range on the next attempt.
type Scanner interface {
	Run(ctx context.Context)
	ScanRange(ctx context.Context, fromBlock, toBlock uint64) error
}

type scanner struct {
	ledger          ledger.Service
	reconciler      Reconciler
	elastic         elastic_search.Index
	cursorRepo      repository.CursorRepository
	cache           *cache.Cache
	deploymentBlock uint64
	interval        time.Duration
	cooldown        time.Duration
}

func NewScanner(
	ledgerService ledger.Service,
	reconciler Reconciler,
	elastic elastic_search.Index,
	cursorRepo repository.CursorRepository,
	c *cache.Cache,
	deploymentBlock uint64,
	interval time.Duration,
	cooldown time.Duration,
) Scanner {
	return scanner{ledgerService, reconciler, elastic, cursorRepo, c, deploymentBlock, interval, cooldown}
}

func (s scanner) Run(ctx context.Context) {
	zap.L().With(zap.Duration("interval", s.interval)).Info("Scanner started")

	for {
		delay := s.interval
		if err := s.tick(ctx); err != nil {
			delay = s.cooldown
		}

		select {
		case <-ctx.Done():
			zap.L().Info("Scanner stopped")
			return
		case <-time.After(delay):
		}
	}
}

func (s scanner) tick(ctx context.Context) error {
	if s.ledger == nil {
		zap.L().Warn("Scanner: Ledger configuration missing, scan skipped")
		return nil
	}

	current, err := s.cursor()
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Scanner: Failed to read scan cursor")
		return err
	}

	tip, err := s.ledger.CurrentBlock(ctx)
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Scanner: Failed to get chain tip")
		return err
	}

	if tip <= current {
		zap.L().With(zap.Uint64("cursor", current), zap.Uint64("tip", tip)).Debug("Scanner: Nothing to scan")
		return nil
	}

	events, err := s.ledger.GetSettlementLogs(ctx, current+1, tip)
	if err != nil {
		return err
	}

	s.reconciler.Process(ctx, events)

	// A shutdown mid-batch leaves the cursor where it was: the range is
	// re-delivered on restart and absorbed by hash-keyed transactions.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.advance(tip, len(events))

	return nil
}

func (s scanner) ScanRange(ctx context.Context, fromBlock, toBlock uint64) error {
	if s.ledger == nil {
		return ErrLedgerNotConfigured
	}

	events, err := s.ledger.GetSettlementLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}

	s.reconciler.Process(ctx, events)

	return ctx.Err()
}

func (s scanner) cursor() (uint64, error) {
	if height, exists := s.cache.Get(cursorCacheKey); exists {
		return height.(uint64), nil
	}

	c, err := s.cursorRepo.Get()
	if err != nil {
		if errors.Is(err, repository.ErrCursorNotFound) {
			zap.L().With(zap.Uint64("height", s.deploymentBlock)).Info("Scanner: Seeding cursor from deployment block")
			s.cache.Set(cursorCacheKey, s.deploymentBlock, cache.NoExpiration)
			return s.deploymentBlock, nil
		}
		return 0, err
	}

	s.cache.Set(cursorCacheKey, c.Height, cache.NoExpiration)

	return c.Height, nil
}

func (s scanner) advance(height uint64, applied int) {
	s.cache.Set(cursorCacheKey, height, cache.NoExpiration)

	s.elastic.AddIndexRequest(elastic_search.CursorIndex, entity.ScanCursor{
		Height:    height,
		UpdatedAt: time.Now().UTC(),
	})
	s.elastic.Persist()

	event.EmitEvent(event.CursorAdvancedEvent, event.CursorAdvanced{Height: height})

	zap.L().With(
		zap.Uint64("height", height),
		zap.Int("events", applied),
	).Info("Scanner: Cursor advanced")
}
