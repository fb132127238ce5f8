// services/chain_index.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"findchain-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventIndex answers "which entities exist" from indexed contract events.
type EventIndex interface {
	EntityIDs(ctx context.Context, kind models.ChainEventKind) ([]string, error)
}

// ChainIndexService persists indexed contract events and scanner cursors.
type ChainIndexService struct {
	DB *gorm.DB
}

func NewChainIndexService(db *gorm.DB) *ChainIndexService {
	return &ChainIndexService{DB: db}
}

// EntityIDs returns distinct entity ids of one kind, newest first.
func (s *ChainIndexService) EntityIDs(ctx context.Context, kind models.ChainEventKind) ([]string, error) {
	var rows []struct {
		EntityID string
		Block    uint64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.ChainEvent{}).
		Select("entity_id, MAX(block_number) AS block").
		Where("kind = ?", kind).
		Group("entity_id").
		Order("block DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s events: %w", kind, err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EntityID)
	}
	return ids, nil
}

// EntityIDsByActor returns entity ids of one kind created or submitted by actor, newest first.
func (s *ChainIndexService) EntityIDsByActor(ctx context.Context, kind models.ChainEventKind, actor string) ([]string, error) {
	var events []models.ChainEvent
	err := s.DB.WithContext(ctx).
		Where("kind = ? AND actor = ?", kind, actor).
		Order("block_number DESC, log_index DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s events for %s: %w", kind, actor, err)
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EntityID)
	}
	return ids, nil
}

// StoreEvents upserts events and advances the cursor in one transaction. Replays of the same
// (tx_hash, log_index) are no-ops.
func (s *ChainIndexService) StoreEvents(ctx context.Context, cursor string, events []models.ChainEvent, lastBlock uint64) error {
	now := time.Now()
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		events[i].CreatedAt = now
		events[i].UpdatedAt = now
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(events) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
				DoNothing: true,
			}).Create(&events).Error; err != nil {
				return fmt.Errorf("failed to store chain events: %w", err)
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_block", "updated_at"}),
		}).Create(&models.ChainCursor{Name: cursor, LastBlock: lastBlock, UpdatedAt: now}).Error
	})
}

// Cursor returns the last processed block, or ok=false when the scanner never ran.
func (s *ChainIndexService) Cursor(ctx context.Context, name string) (uint64, bool, error) {
	var c models.ChainCursor
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cursor %s: %w", name, err)
	}
	return c.LastBlock, true, nil
}

// UnsettledEvents returns up to limit unsettled events of one kind with id greater than
// afterID, ordered by id. Pass the last id of a page as afterID to read the next one.
func (s *ChainIndexService) UnsettledEvents(ctx context.Context, kind models.ChainEventKind, afterID string, limit int) ([]models.ChainEvent, error) {
	q := s.DB.WithContext(ctx).Where("kind = ? AND settled = ?", kind, false)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	var events []models.ChainEvent
	err := q.Order("id ASC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled %s events: %w", kind, err)
	}
	return events, nil
}

func (s *ChainIndexService) MarkSettled(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).
		Model(&models.ChainEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"settled": true, "updated_at": time.Now()}).Error
}
