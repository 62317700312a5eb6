package controllers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reportly/internal/models/request_models"
	"reportly/internal/services"
	"reportly/pkg/utils"
)

type PaymentController struct {
	checkout   services.CheckoutService
	reconciler services.ReconcilerService

	successPageURL string
	failurePageURL string
}

func NewPaymentController(checkout services.CheckoutService, reconciler services.ReconcilerService, successPageURL, failurePageURL string) *PaymentController {
	return &PaymentController{
		checkout:       checkout,
		reconciler:     reconciler,
		successPageURL: successPageURL,
		failurePageURL: failurePageURL,
	}
}

// CreateCheckout godoc
// @Summary Create a signed checkout order for a subscription plan
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Create Checkout Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/checkout [post]
func (p *PaymentController) CreateCheckout(c *gin.Context) {
	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	order, err := p.checkout.CreateCheckoutForPlan(c.Request.Context(), userID, request.PlanCode)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, order, "Checkout order created successfully")
}

// Webhook is the authoritative server-to-server entry point. The gateway
// retries on any non-2xx, so the status code here carries retry semantics:
// 400/401/422 are permanent rejections, 500 asks for a retry.
func (p *PaymentController) Webhook(c *gin.Context) {
	var cb request_models.PaymentCallback
	if err := c.ShouldBind(&cb); err != nil {
		c.JSON(http.StatusBadRequest, webhookAck("error", "malformed payload", &cb))
		return
	}

	res, err := p.reconciler.Reconcile(c.Request.Context(), services.EntryWebhook, &cb)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrMissingField):
			c.JSON(http.StatusBadRequest, webhookAck("error", err.Error(), &cb))
		case errors.Is(err, utils.ErrSignatureInvalid):
			c.JSON(http.StatusUnauthorized, webhookAck("error", "signature verification failed", &cb))
		case errors.Is(err, utils.ErrUserNotFound), errors.Is(err, utils.ErrPlanNotFound):
			// Money may have moved without a matching account; permanent
			// reject, needs a human.
			log.Printf("MANUAL REVIEW: webhook for unknown user/plan txnid=%s gateway=%s: %v", cb.TxnID, cb.GatewayTxnID(), err)
			c.JSON(http.StatusUnprocessableEntity, webhookAck("error", "unknown user or plan", &cb))
		default:
			log.Printf("webhook reconcile failed for txnid=%s: %v", cb.TxnID, err)
			c.JSON(http.StatusInternalServerError, webhookAck("error", "processing failed", &cb))
		}
		return
	}

	message := "payment reconciled"
	switch {
	case res.Duplicate:
		message = "already processed"
	case !res.Settled:
		message = "payment failure recorded"
	}
	c.JSON(http.StatusOK, webhookAck("success", message, &cb))
}

// SuccessReturn handles the browser redirect after a successful payment.
// Side effects are identical to the webhook path; only the acknowledgment
// differs, since the user lands on a page either way.
func (p *PaymentController) SuccessReturn(c *gin.Context) {
	var cb request_models.PaymentCallback
	if err := c.ShouldBind(&cb); err != nil {
		p.redirectFailure(c, "invalid_callback", "malformed payload")
		return
	}

	res, err := p.reconciler.Reconcile(c.Request.Context(), services.EntrySuccessRedirect, &cb)
	if err != nil {
		code := "processing_error"
		switch {
		case errors.Is(err, utils.ErrMissingField):
			code = "missing_fields"
		case errors.Is(err, utils.ErrSignatureInvalid):
			code = "verification_failed"
		case errors.Is(err, utils.ErrUserNotFound), errors.Is(err, utils.ErrPlanNotFound):
			log.Printf("MANUAL REVIEW: success redirect for unknown user/plan txnid=%s: %v", cb.TxnID, err)
			code = "account_mismatch"
		}
		p.redirectFailure(c, code, "")
		return
	}

	if !res.Settled {
		p.redirectFailure(c, cb.Error, cb.ErrorMessage)
		return
	}

	q := url.Values{}
	q.Set("txnid", res.TxnID)
	q.Set("plan", res.PlanName)
	c.Redirect(http.StatusSeeOther, p.successPageURL+"?"+q.Encode())
}

// FailureReturn handles the browser redirect after a failed payment. It
// books the failure (idempotently) and always lands the user on the failure
// page; nothing here has retry semantics.
func (p *PaymentController) FailureReturn(c *gin.Context) {
	var cb request_models.PaymentCallback
	if err := c.ShouldBind(&cb); err != nil {
		p.redirectFailure(c, "invalid_callback", "malformed payload")
		return
	}

	if _, err := p.reconciler.Reconcile(c.Request.Context(), services.EntryFailureRedirect, &cb); err != nil {
		log.Printf("failure redirect reconcile for txnid=%s: %v", cb.TxnID, err)
	}

	p.redirectFailure(c, cb.Error, cb.ErrorMessage)
}

func (p *PaymentController) redirectFailure(c *gin.Context, code, message string) {
	q := url.Values{}
	if code != "" {
		q.Set("code", code)
	}
	if message != "" {
		q.Set("message", message)
	}
	target := p.failurePageURL
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}

// webhookAck is the fixed response contract with the gateway, deliberately
// not the APIResponse envelope.
func webhookAck(status, message string, cb *request_models.PaymentCallback) gin.H {
	return gin.H{
		"status":               status,
		"message":              message,
		"txnid":                cb.TxnID,
		"gatewayTransactionId": cb.GatewayTxnID(),
	}
}
