package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reportly/internal/models/db_models"
)

type UserRepository interface {
	Tx(tx *gorm.DB) UserRepository
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	SetSubscription(ctx context.Context, userID, subscriptionID uuid.UUID, tier string, status db_models.SubscriptionStatus) error
	SetSubscriptionStatus(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) error
	MarkSubscriptionsExpired(ctx context.Context, userIDs []uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) Tx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return u
	}
	return &userRepository{db: tx}
}

func (u *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	var user db_models.User
	err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (u *userRepository) SetSubscription(ctx context.Context, userID, subscriptionID uuid.UUID, tier string, status db_models.SubscriptionStatus) error {
	return u.db.WithContext(ctx).
		Model(&db_models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_id":     subscriptionID,
			"tier":                tier,
			"subscription_status": status,
		}).Error
}

func (u *userRepository) SetSubscriptionStatus(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) error {
	return u.db.WithContext(ctx).
		Model(&db_models.User{}).
		Where("id = ?", userID).
		Update("subscription_status", status).Error
}

func (u *userRepository) MarkSubscriptionsExpired(ctx context.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return u.db.WithContext(ctx).
		Model(&db_models.User{}).
		Where("id IN ?", userIDs).
		Update("subscription_status", db_models.SubStatusExpired).Error
}
