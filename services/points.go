package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"findchain-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointsWeights are the points granted per ledger kind.
type PointsWeights struct {
	FoundPosted    int64
	DeviceReturned int64
	ClaimRejected  int64
}

var DefaultPointsWeights = PointsWeights{
	FoundPosted:    120,
	DeviceReturned: 180,
	ClaimRejected:  0,
}

// Level is a named points threshold.
type Level struct {
	Name      string `json:"name"`
	MinPoints int64  `json:"min_points"`
}

// Levels, ascending.
var Levels = []Level{
	{Name: "Newcomer", MinPoints: 0},
	{Name: "Friend", MinPoints: 500},
	{Name: "Hero", MinPoints: 1000},
	{Name: "Super Hero", MinPoints: 2000},
	{Name: "Legend", MinPoints: 5000},
}

// LevelFor returns the current level and the next one (nil at the top).
func LevelFor(points int64) (Level, *Level) {
	cur := Levels[0]
	for i, l := range Levels {
		if points < l.MinPoints {
			next := Levels[i]
			return cur, &next
		}
		cur = l
	}
	return cur, nil
}

// Reputation is returns / (returns + rejections) as 0..100; 0 with no history.
func Reputation(returned, rejected int64) int {
	total := returned + rejected
	if total == 0 {
		return 0
	}
	return int(returned * 100 / total)
}

func TrustTier(reputation int) string {
	switch {
	case reputation >= 80:
		return "Trusted"
	case reputation >= 50:
		return "Verified"
	case reputation >= 20:
		return "New"
	default:
		return "Unverified"
	}
}

// PointsSummary is the profile view of a wallet's points.
type PointsSummary struct {
	Address        string     `json:"address"`
	TotalPoints    int64      `json:"total_points"`
	Level          string     `json:"level"`
	NextLevel      string     `json:"next_level,omitempty"`
	PointsToNext   int64      `json:"points_to_next_level"`
	ItemsPosted    int64      `json:"items_posted"`
	ItemsReturned  int64      `json:"items_returned"`
	ClaimsRejected int64      `json:"claims_rejected"`
	Reputation     int        `json:"reputation"`
	TrustTier      string     `json:"trust_tier"`
	LastLevelUpAt  *time.Time `json:"last_level_up_at,omitempty"`
}

type PointsService struct {
	DB      *gorm.DB
	Weights PointsWeights
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{DB: db, Weights: DefaultPointsWeights}
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func ensurePoints(tx *gorm.DB, address string) (*models.UserPoints, error) {
	var up models.UserPoints
	err := tx.Where("address = ?", address).First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		up = models.UserPoints{
			ID:      uuid.NewString(),
			Address: address,
			Level:   Levels[0].Name,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&up).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("address = ?", address).First(&up).Error; err != nil {
			return nil, err
		}
		return &up, nil
	}
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *PointsService) pointsFor(kind models.PointsKind) int64 {
	switch kind {
	case models.PointsKindFoundPosted:
		return s.Weights.FoundPosted
	case models.PointsKindDeviceReturned:
		return s.Weights.DeviceReturned
	default:
		return s.Weights.ClaimRejected
	}
}

// Award writes one ledger entry and updates the wallet's totals in a single transaction.
// A second award for the same (kind, reference) changes nothing and reports awarded=false.
func (s *PointsService) Award(ctx context.Context, address string, kind models.PointsKind, reference, description string) (*models.UserPoints, bool, error) {
	address = normalizeAddress(address)
	var (
		out     *models.UserPoints
		awarded bool
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.PointsEvent{
			ID:          uuid.NewString(),
			Address:     address,
			Kind:        kind,
			Reference:   reference,
			Points:      s.pointsFor(kind),
			Description: description,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "reference"}},
			DoNothing: true,
		}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("failed to write points entry: %w", res.Error)
		}

		up, err := ensurePoints(tx, address)
		if err != nil {
			return fmt.Errorf("points record not found for %s: %w", address, err)
		}
		out = up
		if res.RowsAffected == 0 {
			return nil
		}
		awarded = true

		up.TotalPoints += entry.Points
		switch kind {
		case models.PointsKindFoundPosted:
			up.ItemsPosted++
		case models.PointsKindDeviceReturned:
			up.ItemsReturned++
		case models.PointsKindClaimRejected:
			up.ClaimsRejected++
		}

		level, _ := LevelFor(up.TotalPoints)
		if level.Name != up.Level {
			now := time.Now()
			up.Level = level.Name
			up.LastLevelUpAt = &now
		}
		return tx.Save(up).Error
	})
	if err != nil {
		return nil, false, err
	}

	if awarded {
		log.Printf("🏅 [POINTS] %s → %s +%d (total=%d, level=%s)", address, kind, s.pointsFor(kind), out.TotalPoints, out.Level)
	}
	return out, awarded, nil
}

// Summary reads a wallet's totals. A wallet with no ledger entries gets a zero summary and
// no row is written.
func (s *PointsService) Summary(ctx context.Context, address string) (*PointsSummary, error) {
	address = normalizeAddress(address)
	var up models.UserPoints
	err := s.DB.WithContext(ctx).Where("address = ?", address).First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		up = models.UserPoints{Address: address, Level: Levels[0].Name}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read points for %s: %w", address, err)
	}

	rep := Reputation(up.ItemsReturned, up.ClaimsRejected)
	sum := &PointsSummary{
		Address:        up.Address,
		TotalPoints:    up.TotalPoints,
		Level:          up.Level,
		ItemsPosted:    up.ItemsPosted,
		ItemsReturned:  up.ItemsReturned,
		ClaimsRejected: up.ClaimsRejected,
		Reputation:     rep,
		TrustTier:      TrustTier(rep),
		LastLevelUpAt:  up.LastLevelUpAt,
	}
	if _, next := LevelFor(up.TotalPoints); next != nil {
		sum.NextLevel = next.Name
		sum.PointsToNext = next.MinPoints - up.TotalPoints
	}
	return sum, nil
}

// History returns a page of ledger entries, newest first
func (s *PointsService) History(ctx context.Context, address string, page, size int) ([]models.PointsEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	address = normalizeAddress(address)

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.PointsEvent{}).Where("address = ?", address).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.PointsEvent
	err := s.DB.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&events).Error
	return events, total, err
}
