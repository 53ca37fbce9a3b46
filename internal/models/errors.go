package models

import "errors"

// Ошибки предметной области. Обработчики сопоставляют их с HTTP-статусами через errors.Is.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrAccountNotFound     = errors.New("account not found")
	ErrLimitExceeded       = errors.New("request limit exceeded")
	ErrInvalidTransition   = errors.New("invalid plan transition")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentNotSucceeded = errors.New("payment not succeeded")
	ErrUpstreamFailure     = errors.New("upstream failure")
	ErrValidation          = errors.New("validation error")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("forbidden")
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrConflict            = errors.New("concurrent update, retry later")
)
