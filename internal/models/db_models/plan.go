package db_models

import (
	"time"

	"gorm.io/datatypes"
)

type BillingPeriod string

const (
	PeriodMonth BillingPeriod = "month"
	PeriodYear  BillingPeriod = "year"
)

type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex"` // tier identifier, e.g. "starter", "professional"
	Name        string
	Description *string
	Period      BillingPeriod `gorm:"type:billing_period"` // "month" | "year"
	PriceMinor  int64         // 29900 = 299.00
	Currency    string        `gorm:"size:3"` // "INR", "USD"
	IsActive    bool          `gorm:"default:true"`

	// Optional: feature flags, limits, etc.
	Features datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

// PeriodEnd returns the end of one billing period starting at from.
func (p *Plan) PeriodEnd(from time.Time) time.Time {
	if p.Period == PeriodYear {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
