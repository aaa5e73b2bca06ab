package entity

import "time"

const CursorSlug = "scan-cursor"

// ScanCursor is the singleton watermark document: the block number up to
// which the settlement log has been fully scanned and applied.
type ScanCursor struct {
	Height    uint64    `json:"height"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c ScanCursor) Slug() string {
	return CursorSlug
}
