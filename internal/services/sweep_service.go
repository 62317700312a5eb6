package services

import (
	"context"
	"fmt"
	"time"

	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

// SweepService materializes the scheduled job the data model depends on:
// grants past their paid-through date flip to expired, and the owning users'
// snapshots follow.
type SweepService interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

type sweepService struct {
	ledger repositories.SubscriptionLedger
	users  repositories.UserRepository
}

func NewSweepService(ledger repositories.SubscriptionLedger, users repositories.UserRepository) SweepService {
	return &sweepService{
		ledger: ledger,
		users:  users,
	}
}

func (s *sweepService) ExpireOverdue(ctx context.Context) (int, error) {
	userIDs, err := s.ledger.ExpireDue(ctx, nowUnix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	if err := s.users.MarkSubscriptionsExpired(ctx, userIDs); err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}

	return len(userIDs), nil
}

func nowUnix() int64 { return time.Now().Unix() }
