package db_models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
)

var (
	ErrNotCancellable = errors.New("subscription is not active")
	ErrAlreadyExpired = errors.New("subscription already expired")
)

// Subscription is a paid access grant. EndsAt is fixed at creation and never
// recomputed; cancellation keeps access until the paid-through date.
type Subscription struct {
	BaseModel
	UserID uuid.UUID `gorm:"index"`
	PlanID uuid.UUID `gorm:"index"`
	Tier   string    `gorm:"index"`

	Status      SubscriptionStatus `gorm:"type:subscription_status;index"`
	StartsAt    int64              `gorm:"not null"`
	EndsAt      int64              `gorm:"not null"`
	CancelledAt *int64

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	User User `gorm:"foreignKey:UserID"`
	Plan Plan `gorm:"foreignKey:PlanID"`
}

// MarkCancelled is the only route out of active short of expiry. EndsAt stays
// untouched.
func (s *Subscription) MarkCancelled(now int64) error {
	if s.Status != SubStatusActive {
		return ErrNotCancellable
	}
	s.Status = SubStatusCancelled
	s.CancelledAt = &now
	return nil
}

// MarkExpired flips an active or cancelled grant once EndsAt has passed.
func (s *Subscription) MarkExpired() error {
	if s.Status == SubStatusExpired {
		return ErrAlreadyExpired
	}
	s.Status = SubStatusExpired
	return nil
}

// AccessibleAt reports whether the grant still covers the given instant.
func (s *Subscription) AccessibleAt(ts int64) bool {
	if s.Status != SubStatusActive && s.Status != SubStatusCancelled {
		return false
	}
	return ts < s.EndsAt
}
