// models/chain_event.go
package models

import (
	"time"
)

// ChainEventKind mirrors the contract event names the indexer follows.
type ChainEventKind string

const (
	ChainEventDeviceMinted        ChainEventKind = "DeviceMinted"
	ChainEventBountyCreated       ChainEventKind = "BountyCreated"
	ChainEventClaimSubmitted      ChainEventKind = "ClaimSubmitted"
	ChainEventOpenBountyCreated   ChainEventKind = "OpenBountyCreated"
	ChainEventFoundListingCreated ChainEventKind = "FoundListingCreated"
)

// ChainEvent records that a contract entity exists. Only immutable facts from the log are
// stored; live state (active flags, amounts) is always re-read from the contract.
// Table name: chain_events
type ChainEvent struct {
	ID          string         `gorm:"primaryKey;type:uuid;not null" json:"id"`
	Kind        ChainEventKind `gorm:"type:varchar(32);not null;index:idx_chain_events_kind_entity" json:"kind"`
	EntityID    string         `gorm:"type:varchar(78);not null;index:idx_chain_events_kind_entity" json:"entity_id"` // tokenId, claimId, bountyId or listingId
	RelatedID   string         `gorm:"type:varchar(78)" json:"related_id,omitempty"`                                  // tokenId for ClaimSubmitted
	Actor       string         `gorm:"type:varchar(42);not null;index" json:"actor"`                                  // owner or finder, lowercased
	BlockNumber uint64         `gorm:"not null;index" json:"block_number"`
	TxHash      string         `gorm:"type:varchar(66);not null;uniqueIndex:idx_chain_events_log" json:"tx_hash"`
	LogIndex    uint           `gorm:"not null;uniqueIndex:idx_chain_events_log" json:"log_index"`
	Settled     bool           `gorm:"not null;default:false;index" json:"settled"` // claims: outcome booked; found listings: points booked
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

// ChainCursor stores the last block a scanner has fully processed.
// Table name: chain_cursors
type ChainCursor struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)" json:"name"`
	LastBlock uint64    `gorm:"not null" json:"last_block"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
