package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "Pending"
	TransactionCompleted TransactionStatus = "Completed"
)

// Transaction records one completed sale attributed to this marketplace.
// Documents are keyed by the ledger transaction hash so a re-delivered
// settlement can never produce a second row.
type Transaction struct {
	TransactionId string `json:"transactionId"`
	ListingId     string `json:"listingId,omitempty"`
	ArtworkId     string `json:"artworkId,omitempty"`
	TokenId       string `json:"tokenId"`
	SellerId      string `json:"sellerId"`
	BuyerId       string `json:"buyerId"`

	SalePrice     string `json:"salePrice"`
	SellerAmount  string `json:"sellerAmount"`
	ArtistRoyalty string `json:"artistRoyalty"`
	PlatformFee   string `json:"platformFee"`
	PartnerFee    string `json:"partnerFee,omitempty"`

	PartnerId    string `json:"partnerId,omitempty"`
	PaymentToken string `json:"paymentToken"`
	LedgerTxHash string `json:"ledgerTxHash"`

	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

func (t Transaction) Slug() string {
	return CreateTransactionSlug(t.LedgerTxHash)
}

func CreateTransactionSlug(ledgerTxHash string) string {
	return slug.Make(fmt.Sprintf("settlement-%s", ledgerTxHash))
}
