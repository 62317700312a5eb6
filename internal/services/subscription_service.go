package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"reportly/internal/models/db_models"
	"reportly/internal/models/response_models"
	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

type SubscriptionService interface {
	CancelForUser(ctx context.Context, userID uuid.UUID) (*response_models.SubscriptionStatusResponse, error)
	StatusForUser(ctx context.Context, userID uuid.UUID) (*response_models.SubscriptionStatusResponse, error)
}

type subscriptionService struct {
	users  repositories.UserRepository
	ledger repositories.SubscriptionLedger
}

func NewSubscriptionService(users repositories.UserRepository, ledger repositories.SubscriptionLedger) SubscriptionService {
	return &subscriptionService{
		users:  users,
		ledger: ledger,
	}
}

// CancelForUser moves the user's grant to cancelled. Access continues until
// the paid-through date; only the sweep flips it to expired.
func (s *subscriptionService) CancelForUser(ctx context.Context, userID uuid.UUID) (*response_models.SubscriptionStatusResponse, error) {
	sub, err := s.currentSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := nowUnix()
	cancelled, err := s.ledger.Cancel(ctx, sub.ID, now)
	if err != nil {
		if errors.Is(err, db_models.ErrNotCancellable) {
			return nil, fmt.Errorf("%w: subscription is %s", utils.ErrSubscriptionNotFound, sub.Status)
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if cancelled == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	if err := s.users.SetSubscriptionStatus(ctx, userID, db_models.SubStatusCancelled); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}

	return statusResponse(userID, cancelled), nil
}

func (s *subscriptionService) StatusForUser(ctx context.Context, userID uuid.UUID) (*response_models.SubscriptionStatusResponse, error) {
	sub, err := s.currentSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return statusResponse(userID, sub), nil
}

func (s *subscriptionService) currentSubscription(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	if user.SubscriptionID == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	sub, err := s.ledger.FindByID(ctx, *user.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	return sub, nil
}

func statusResponse(userID uuid.UUID, sub *db_models.Subscription) *response_models.SubscriptionStatusResponse {
	return &response_models.SubscriptionStatusResponse{
		UserID:      userID,
		Tier:        sub.Tier,
		Status:      string(sub.Status),
		StartsAt:    sub.StartsAt,
		EndsAt:      sub.EndsAt,
		CancelledAt: sub.CancelledAt,
	}
}
