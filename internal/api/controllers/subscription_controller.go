package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reportly/internal/services"
	"reportly/pkg/utils"
)

type SubscriptionController struct {
	subscriptions services.SubscriptionService
}

func NewSubscriptionController(subscriptions services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptions: subscriptions,
	}
}

// Cancel godoc
// @Summary Cancel the caller's subscription; access runs until the paid-through date
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/cancel [post]
func (s *SubscriptionController) Cancel(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	status, err := s.subscriptions.CancelForUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Subscription cancelled")
}

// Status godoc
// @Summary Current subscription of the caller
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/me [get]
func (s *SubscriptionController) Status(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	status, err := s.subscriptions.StatusForUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Subscription retrieved")
}
