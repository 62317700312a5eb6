package response_models

import "github.com/google/uuid"

type SubscriptionPlan struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"` // e.g., "starter", "professional"
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Period      string    `json:"period"` // "month" | "year"
	PriceMinor  int64     `json:"price_minor"`
	Price       string    `json:"price"` // two-decimal display string
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"is_active"`
}

type SubscriptionStatusResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Tier        string    `json:"tier"`
	Status      string    `json:"status"`
	StartsAt    int64     `json:"starts_at"`
	EndsAt      int64     `json:"ends_at"`
	CancelledAt *int64    `json:"cancelled_at,omitempty"`
}
