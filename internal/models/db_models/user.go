package db_models

import "github.com/google/uuid"

// User carries only the fields the payment flow reads and the subscription
// snapshot it maintains; account lifecycle lives in the identity service.
type User struct {
	BaseModel
	Name  string
	Email string `gorm:"unique"`
	Phone string

	SubscriptionID     *uuid.UUID `gorm:"index"`
	Tier               string
	SubscriptionStatus string
}
