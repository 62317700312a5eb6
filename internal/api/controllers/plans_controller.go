package controllers

import (
	"github.com/gin-gonic/gin"

	"reportly/internal/services"
	"reportly/pkg/utils"
)

type PlansController struct {
	planService services.PlanServiceInterface
}

func NewPlansController(planService services.PlanServiceInterface) *PlansController {
	return &PlansController{
		planService: planService,
	}
}

// ListPlans godoc
// @Summary List active subscription plans
// @Tags Plans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /plans [get]
func (p *PlansController) ListPlans(c *gin.Context) {
	plans, err := p.planService.GetActivePlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plans, "Plans retrieved successfully")
}
