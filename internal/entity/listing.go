package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

type RetractionReason string

const (
	RetractedSold           RetractionReason = "sold"
	RetractedOwnershipDrift RetractionReason = "ownership_drift"
)

type Listing struct {
	ListingId    string `json:"listingId"`
	ArtworkId    string `json:"artworkId"`
	TokenId      string `json:"tokenId"`
	SellerId     string `json:"sellerId"`
	SellerWallet string `json:"sellerWallet"`
	Price        string `json:"price"`
	PaymentToken string `json:"paymentToken"`
	Category     string `json:"category,omitempty"`
	PartnerId    string `json:"partnerId,omitempty"`
	Active       bool   `json:"active"`

	CreatedAt   time.Time  `json:"createdAt"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	SoldAt      *time.Time `json:"soldAt,omitempty"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.ListingId)
}

func CreateListingSlug(listingId string) string {
	return slug.Make(fmt.Sprintf("listing-%s", listingId))
}

// Retract flips the listing to its terminal inactive state. Retracting an
// already inactive listing is a no-op and reports false.
func (l *Listing) Retract(reason RetractionReason, at time.Time) bool {
	if !l.Active {
		return false
	}

	l.Active = false
	if reason == RetractedSold {
		l.SoldAt = &at
	} else {
		l.CancelledAt = &at
	}

	return true
}
