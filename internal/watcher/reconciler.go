package watcher

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/anomaly"
	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

// Reconciler applies a batch of decoded settlement events to the local
// listings. A sale observed anywhere retracts our listing for that token;
// a transaction row is only recorded when this marketplace was the
// originating channel.
type Reconciler interface {
	Process(ctx context.Context, events []entity.SettlementEvent)
}

type reconciler struct {
	listingRepo repository.ListingRepository
	txRepo      repository.TransactionRepository
	elastic     elastic_search.Index
}

func NewReconciler(
	listingRepo repository.ListingRepository,
	txRepo repository.TransactionRepository,
	elastic elastic_search.Index,
) Reconciler {
	return reconciler{listingRepo, txRepo, elastic}
}

func (r reconciler) Process(ctx context.Context, events []entity.SettlementEvent) {
	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}

		if err := r.apply(ev); err != nil {
			r.elastic.ClearRequests()
			zap.L().With(
				zap.Error(err),
				zap.String("tokenId", ev.TokenId),
				zap.String("txHash", ev.TxHash),
			).Error("Reconciler: Failed to process settlement event")
		}
	}
}

// apply persists one event's mutations as a single unit before returning.
func (r reconciler) apply(ev entity.SettlementEvent) error {
	listings, err := r.listingRepo.FindActiveByToken(ev.TokenId)
	if err != nil {
		return err
	}

	if len(listings) > 1 {
		r.recordAnomaly(anomaly.New("reconciler", anomaly.DuplicateActiveListings,
			"more than one active listing for token", map[string]interface{}{
				"tokenId": ev.TokenId,
				"count":   len(listings),
			}))
	}

	now := time.Now().UTC()

	var retracted []entity.Listing
	for i := range listings {
		if listings[i].Retract(entity.RetractedSold, now) {
			r.elastic.AddUpdateRequest(elastic_search.ListingIndex, listings[i])
			retracted = append(retracted, listings[i])

			zap.L().With(
				zap.String("listingId", listings[i].ListingId),
				zap.String("tokenId", ev.TokenId),
			).Info("Reconciler: Retracted listing, asset sold on ledger")
		}
	}

	if err := r.recordTransaction(ev, retracted, now); err != nil {
		return err
	}

	r.elastic.Persist()

	for _, l := range retracted {
		event.EmitEvent(event.ListingRetractedEvent, event.ListingRetraction{Listing: l, Reason: entity.RetractedSold})
	}

	return nil
}

func (r reconciler) recordTransaction(ev entity.SettlementEvent, retracted []entity.Listing, now time.Time) error {
	partner, err := r.listingRepo.FindPartnerListing(ev.TokenId)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			// Off-channel sale: retraction only, nothing to record.
			return nil
		}
		return err
	}

	if _, err := r.txRepo.GetByLedgerTxHash(ev.TxHash); err == nil {
		r.recordAnomaly(anomaly.New("reconciler", anomaly.SettlementRedelivered,
			"settlement already recorded for ledger tx hash", map[string]interface{}{
				"tokenId": ev.TokenId,
				"txHash":  ev.TxHash,
			}))
		return nil
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return err
	}

	tx := createTransaction(ev, retracted, partner, now)
	r.elastic.AddIndexRequest(elastic_search.TransactionIndex, tx)

	zap.L().With(
		zap.String("transactionId", tx.TransactionId),
		zap.String("tokenId", tx.TokenId),
		zap.String("txHash", tx.LedgerTxHash),
	).Info("Reconciler: Recorded settlement transaction")

	event.EmitEvent(event.TransactionRecordedEvent, event.TransactionRecorded{Transaction: tx})

	return nil
}

func createTransaction(ev entity.SettlementEvent, retracted []entity.Listing, partner entity.Listing, now time.Time) entity.Transaction {
	sellerAmount := new(big.Int).Set(ev.Price)
	sellerAmount.Sub(sellerAmount, ev.Royalty)
	sellerAmount.Sub(sellerAmount, ev.PlatformFee)
	sellerAmount.Sub(sellerAmount, ev.PartnerFee)

	id, _ := uuid.NewV4()

	tx := entity.Transaction{
		TransactionId: id.String(),
		TokenId:       ev.TokenId,
		SellerId:      ev.Seller,
		BuyerId:       ev.Buyer,
		SalePrice:     ev.Price.String(),
		SellerAmount:  sellerAmount.String(),
		ArtistRoyalty: ev.Royalty.String(),
		PlatformFee:   ev.PlatformFee.String(),
		PartnerId:     partner.PartnerId,
		PaymentToken:  ev.PaymentToken,
		LedgerTxHash:  ev.TxHash,
		Status:        entity.TransactionCompleted,
		CreatedAt:     now,
		CompletedAt:   &now,
	}

	if ev.PartnerFee.Sign() > 0 {
		tx.PartnerFee = ev.PartnerFee.String()
	}

	if len(retracted) != 0 {
		tx.ListingId = retracted[0].ListingId
		tx.ArtworkId = retracted[0].ArtworkId
	}

	return tx
}

func (r reconciler) recordAnomaly(a anomaly.Anomaly) {
	zap.L().With(
		zap.String("component", a.Component),
		zap.String("type", string(a.Type)),
		zap.Any("extra", a.Extra),
	).Warn("Reconciler: " + a.Detail)

	r.elastic.AddIndexRequest(elastic_search.AnomalyIndex, a)
	event.EmitEvent(event.AnomalyDetectedEvent, event.AnomalyDetected{Anomaly: a})
}
