package watcher

import (
	"context"
	"strings"
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/artfolio/marketplace-chain-sync/internal/ledger"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"go.uber.org/zap"
)

// Auditor re-verifies every active listing against the ledger's current
// owner view. It is the safety net for sales the settlement scan never
// sees: off-channel transfers and events missed during scanner downtime.
type Auditor interface {
	Run(ctx context.Context)
	Cycle(ctx context.Context) error
}

type auditor struct {
	ledger       ledger.Service
	listingRepo  repository.ListingRepository
	elastic      elastic_search.Index
	interval     time.Duration
	initialDelay time.Duration
}

func NewAuditor(
	ledgerService ledger.Service,
	listingRepo repository.ListingRepository,
	elastic elastic_search.Index,
	interval time.Duration,
	initialDelay time.Duration,
) Auditor {
	return auditor{ledgerService, listingRepo, elastic, interval, initialDelay}
}

func (a auditor) Run(ctx context.Context) {
	zap.L().With(zap.Duration("interval", a.interval)).Info("Auditor started")

	select {
	case <-ctx.Done():
		return
	case <-time.After(a.initialDelay):
	}

	for {
		if err := a.Cycle(ctx); err != nil {
			zap.L().With(zap.Error(err)).Error("Auditor: Cycle failed")
		}

		select {
		case <-ctx.Done():
			zap.L().Info("Auditor stopped")
			return
		case <-time.After(a.interval):
		}
	}
}

func (a auditor) Cycle(ctx context.Context) error {
	if a.ledger == nil {
		zap.L().Warn("Auditor: Ledger configuration missing, audit skipped")
		return nil
	}

	listings, err := a.listingRepo.ListActive()
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Auditor: Failed to load active listings")
		return err
	}

	now := time.Now().UTC()
	retracted := make([]entity.Listing, 0)

	for i := range listings {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		owner, err := a.ledger.OwnerOf(ctx, listings[i].TokenId)
		if err != nil {
			zap.L().With(
				zap.Error(err),
				zap.String("listingId", listings[i].ListingId),
				zap.String("tokenId", listings[i].TokenId),
			).Warn("Auditor: Owner lookup failed, listing skipped")
			continue
		}

		if strings.EqualFold(owner, listings[i].SellerWallet) {
			continue
		}

		if listings[i].Retract(entity.RetractedOwnershipDrift, now) {
			a.elastic.AddUpdateRequest(elastic_search.ListingIndex, listings[i])
			retracted = append(retracted, listings[i])

			zap.L().With(
				zap.String("listingId", listings[i].ListingId),
				zap.String("tokenId", listings[i].TokenId),
				zap.String("currentOwner", owner),
			).Warn("Auditor: Retracted listing, seller no longer owns asset")
		}
	}

	if len(retracted) > 0 {
		a.elastic.Persist()

		for _, l := range retracted {
			event.EmitEvent(event.ListingRetractedEvent, event.ListingRetraction{Listing: l, Reason: entity.RetractedOwnershipDrift})
		}

		zap.L().With(
			zap.Int("audited", len(listings)),
			zap.Int("retracted", len(retracted)),
		).Info("Auditor: Cycle complete")
	} else {
		zap.L().With(zap.Int("audited", len(listings))).Debug("Auditor: Cycle complete, all listings valid")
	}

	return nil
}
