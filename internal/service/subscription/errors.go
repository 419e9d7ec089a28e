package subscription

import "errors"

// Sentinel errors for the subscription service layer.
var (
	ErrEmailRequired  = errors.New("email is required")
	ErrListIDRequired = errors.New("list id is required")
)
