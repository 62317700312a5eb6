package response_models

import "reportly/internal/gateway"

// CheckoutOrderResponse is rendered into a self-submitting form by the
// checkout UI; Order carries the exact signed field values.
type CheckoutOrderResponse struct {
	ActionURL string              `json:"action_url"`
	Order     gateway.SignedOrder `json:"order"`
}
