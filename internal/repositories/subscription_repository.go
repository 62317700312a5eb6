package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reportly/internal/models/db_models"
)

// SubscriptionLedger owns every subscription status mutation. All writes go
// through named transitions; nothing else assigns status fields.
type SubscriptionLedger interface {
	Tx(tx *gorm.DB) SubscriptionLedger
	Activate(ctx context.Context, userID, planID uuid.UUID, tier string, startsAt, endsAt int64) (*db_models.Subscription, error)
	Cancel(ctx context.Context, subscriptionID uuid.UUID, now int64) (*db_models.Subscription, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	ExpireDue(ctx context.Context, now int64) ([]uuid.UUID, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionLedger {
	return &subscriptionRepository{db: db}
}

func (s *subscriptionRepository) Tx(tx *gorm.DB) SubscriptionLedger {
	if tx == nil {
		return s
	}
	return &subscriptionRepository{db: tx}
}

// Activate creates a fresh grant with its own EndsAt. A payment landing
// while an older grant is still active never extends that grant; the user's
// pointer moves to the new row and the old one ages out via the sweep.
func (s *subscriptionRepository) Activate(ctx context.Context, userID, planID uuid.UUID, tier string, startsAt, endsAt int64) (*db_models.Subscription, error) {
	sub := &db_models.Subscription{
		UserID:   userID,
		PlanID:   planID,
		Tier:     tier,
		Status:   db_models.SubStatusActive,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *subscriptionRepository) Cancel(ctx context.Context, subscriptionID uuid.UUID, now int64) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := sub.MarkCancelled(now); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":       sub.Status,
			"cancelled_at": sub.CancelledAt,
		}).Error
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (s *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &sub, nil
}

// ExpireDue flips grants whose paid-through date has passed and returns the
// affected user ids so callers can clear stale snapshots.
func (s *subscriptionRepository) ExpireDue(ctx context.Context, now int64) ([]uuid.UUID, error) {
	var due []db_models.Subscription
	err := s.db.WithContext(ctx).
		Where("status IN ? AND ends_at < ?",
			[]db_models.SubscriptionStatus{db_models.SubStatusActive, db_models.SubStatusCancelled}, now).
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}

	subIDs := make([]uuid.UUID, 0, len(due))
	userIDs := make([]uuid.UUID, 0, len(due))
	for _, sub := range due {
		subIDs = append(subIDs, sub.ID)
		userIDs = append(userIDs, sub.UserID)
	}

	err = s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id IN ?", subIDs).
		Update("status", db_models.SubStatusExpired).Error
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}
