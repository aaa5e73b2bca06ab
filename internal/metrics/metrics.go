package metrics

import (
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CursorHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketplace_sync_cursor_height",
		Help: "Last fully scanned ledger block",
	})

	ListingsRetracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_sync_listings_retracted_total",
		Help: "Listings retracted by reconciliation, by reason",
	}, []string{"reason"})

	TransactionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_sync_transactions_recorded_total",
		Help: "Settlement transactions recorded for this marketplace's channel",
	})

	Anomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_sync_anomalies_total",
		Help: "Consistency anomalies observed, by type",
	}, []string{"type"})
)

// Subscribe wires the collectors to the reconciliation event stream.
func Subscribe() {
	event.AddEventListener(event.CursorAdvancedEvent, func(msg interface{}) {
		if cursor, ok := msg.(event.CursorAdvanced); ok {
			CursorHeight.Set(float64(cursor.Height))
		}
	})

	event.AddEventListener(event.ListingRetractedEvent, func(msg interface{}) {
		if retraction, ok := msg.(event.ListingRetraction); ok {
			ListingsRetracted.WithLabelValues(string(retraction.Reason)).Inc()
		}
	})

	event.AddEventListener(event.TransactionRecordedEvent, func(msg interface{}) {
		if _, ok := msg.(event.TransactionRecorded); ok {
			TransactionsRecorded.Inc()
		}
	})

	event.AddEventListener(event.AnomalyDetectedEvent, func(msg interface{}) {
		if detected, ok := msg.(event.AnomalyDetected); ok {
			Anomalies.WithLabelValues(string(detected.Anomaly.Type)).Inc()
		}
	})
}
