package services

import (
	"context"
	"fmt"

	"reportly/internal/gateway"
	"reportly/internal/models/response_models"
	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

type PlanServiceInterface interface {
	GetActivePlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
}

type PlanService struct {
	planRepo repositories.PlanRepository
}

func NewPlanService(planRepo repositories.PlanRepository) PlanServiceInterface {
	return &PlanService{
		planRepo: planRepo,
	}
}

func (p *PlanService) GetActivePlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	plans, err := p.planRepo.GetActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}

	result := make([]response_models.SubscriptionPlan, 0, len(plans))
	for _, plan := range plans {
		result = append(result, response_models.SubscriptionPlan{
			ID:          plan.ID,
			Code:        plan.Code,
			Name:        plan.Name,
			Description: plan.Description,
			Period:      string(plan.Period),
			PriceMinor:  plan.PriceMinor,
			Price:       gateway.FormatAmount(plan.PriceMinor),
			Currency:    plan.Currency,
			IsActive:    plan.IsActive,
		})
	}

	return result, nil
}
