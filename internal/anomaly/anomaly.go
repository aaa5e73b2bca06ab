package anomaly

import (
	"time"

	"github.com/nu7hatch/gouuid"
)

type Type string

const (
	DuplicateActiveListings Type = "duplicate_active_listings"
	SettlementRedelivered   Type = "settlement_redelivered"
)

// Anomaly is a consistency condition the reconciliation paths tolerate but
// must never absorb silently: it is logged, counted and persisted.
type Anomaly struct {
	Time      time.Time              `json:"time"`
	Component string                 `json:"component"`
	Type      Type                   `json:"type"`
	Detail    string                 `json:"detail"`
	Extra     map[string]interface{} `json:"extra"`
}

func (a Anomaly) Slug() string {
	u, _ := uuid.NewV4()
	return u.String()
}

func New(component string, anomalyType Type, detail string, extra map[string]interface{}) Anomaly {
	return Anomaly{
		Time:      time.Now().UTC(),
		Component: component,
		Type:      anomalyType,
		Detail:    detail,
		Extra:     extra,
	}
}
