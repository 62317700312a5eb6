package utils

import "errors"

var (
	ErrSignatureInvalid     = errors.New("callback signature invalid")
	ErrMissingField         = errors.New("required callback field missing")
	ErrUserNotFound         = errors.New("user not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPersistenceFailure   = errors.New("persistence failure")
)
