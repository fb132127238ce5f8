package models

import (
	"time"

	"gorm.io/gorm"
)

// UserPoints tracks points and reputation for each wallet (denormalized from points_events)
type UserPoints struct {
	ID      string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	Address string `gorm:"type:varchar(42);uniqueIndex;not null" json:"address"` // lowercased wallet address

	TotalPoints int64  `json:"total_points" gorm:"default:0"`
	Level       string `json:"level" gorm:"type:varchar(32);default:'Newcomer'"`

	// Activity counters
	ItemsPosted    int64 `json:"items_posted" gorm:"default:0"`
	ItemsReturned  int64 `json:"items_returned" gorm:"default:0"`
	ClaimsRejected int64 `json:"claims_rejected" gorm:"default:0"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PointsKind is the reason a points entry was written.
type PointsKind string

const (
	PointsKindFoundPosted    PointsKind = "found_posted"
	PointsKindDeviceReturned PointsKind = "device_returned"
	PointsKindClaimRejected  PointsKind = "claim_rejected"
)

// PointsEvent = one ledger entry (e.g., "Returned device for token 12")
type PointsEvent struct {
	ID          string     `gorm:"primaryKey;type:uuid;not null" json:"id"`
	Address     string     `gorm:"type:varchar(42);index;not null" json:"address"`
	Kind        PointsKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_points_events_ref" json:"kind"`
	Reference   string     `gorm:"type:varchar(128);not null;uniqueIndex:idx_points_events_ref" json:"reference"` // e.g. claim id, listing id
	Points      int64      `gorm:"not null" json:"points"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}
