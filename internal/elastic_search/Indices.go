package elastic_search

import (
	"fmt"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
)

type Indices string

var (
	ListingIndex     Indices = "listing"
	TransactionIndex Indices = "transaction"
	CursorIndex      Indices = "scancursor"
	AnomalyIndex     Indices = "anomaly"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
