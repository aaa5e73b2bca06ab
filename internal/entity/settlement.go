package entity

import "math/big"

// SettlementEvent is one decoded settlement log entry, in ledger order.
type SettlementEvent struct {
	TokenId      string
	Seller       string
	Buyer        string
	Price        *big.Int
	PaymentToken string
	Royalty      *big.Int
	PlatformFee  *big.Int
	PartnerFee   *big.Int

	TxHash   string
	BlockNum uint64
	LogIndex uint
}
