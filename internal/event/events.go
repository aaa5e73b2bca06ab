package event

import (
	"github.com/artfolio/marketplace-chain-sync/internal/anomaly"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
)

type Type string

const (
	ListingRetractedEvent    Type = "ListingRetractedEvent"
	TransactionRecordedEvent Type = "TransactionRecordedEvent"
	AnomalyDetectedEvent     Type = "AnomalyDetectedEvent"
	CursorAdvancedEvent      Type = "CursorAdvancedEvent"
)

type ListingRetraction struct {
	Listing entity.Listing
	Reason  entity.RetractionReason
}

type TransactionRecorded struct {
	Transaction entity.Transaction
}

type AnomalyDetected struct {
	Anomaly anomaly.Anomaly
}

type CursorAdvanced struct {
	Height uint64
}
