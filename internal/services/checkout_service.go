package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"reportly/internal/gateway"
	"reportly/internal/models/response_models"
	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

type CheckoutService interface {
	CreateCheckoutForPlan(ctx context.Context, userID uuid.UUID, planCode string) (*response_models.CheckoutOrderResponse, error)
}

type checkoutService struct {
	users  repositories.UserRepository
	plans  repositories.PlanRepository
	issuer *gateway.OrderIssuer
	cfg    gateway.Config
}

func NewCheckoutService(users repositories.UserRepository, plans repositories.PlanRepository, issuer *gateway.OrderIssuer, cfg gateway.Config) CheckoutService {
	return &checkoutService{
		users:  users,
		plans:  plans,
		issuer: issuer,
		cfg:    cfg,
	}
}

// CreateCheckoutForPlan builds the signed order the checkout UI posts to the
// gateway. The order is ephemeral: nothing is persisted until a callback
// comes back and the reconciler claims the transaction.
func (s *checkoutService) CreateCheckoutForPlan(ctx context.Context, userID uuid.UUID, planCode string) (*response_models.CheckoutOrderResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	plan, err := s.plans.FindByCode(ctx, planCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}
	if plan.PriceMinor <= 0 {
		return nil, fmt.Errorf("%w: plan %s is not billable", utils.ErrPlanNotFound, planCode)
	}

	order := s.issuer.Issue(gateway.OrderParams{
		AmountMinor: plan.PriceMinor,
		ProductInfo: fmt.Sprintf("%s (%s)", plan.Name, plan.Code),
		FirstName:   user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		UserID:      user.ID.String(),
		PlanName:    plan.Name,
		Tier:        plan.Code,
	})

	return &response_models.CheckoutOrderResponse{
		ActionURL: s.cfg.CheckoutURL,
		Order:     order,
	}, nil
}
