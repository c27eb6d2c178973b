package services

import "errors"

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrSessionNotFound   = errors.New("table session not found")
	ErrSessionExpired    = errors.New("table session expired")
	ErrSessionInactive   = errors.New("table session is not active")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrForbiddenOrder    = errors.New("order does not belong to this table or customer")
)
