package xero

import "errors"

var (
	// ErrNotConfigured means no token triple has been stored yet; the
	// consent flow has never completed.
	ErrNotConfigured = errors.New("xero integration is not configured")

	// ErrTokenRefreshFailed means the refresh grant was rejected. The super
	// admin has been notified; the calling operation must not proceed.
	ErrTokenRefreshFailed = errors.New("xero token refresh failed")

	// ErrRemoteCallFailed means the provider answered with a non-2xx status.
	ErrRemoteCallFailed = errors.New("xero api call failed")

	ErrNoTenant         = errors.New("no xero tenant connected")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrAgentNotFound    = errors.New("no agent assigned to property")
	ErrDuplicateInvoice = errors.New("invoice already issued for booking")
	ErrNoLineItems      = errors.New("booking has no billable services")
)

// Result is the structured outcome returned across the workflow boundary.
// Business failures surface here instead of as raw errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

func success(message string) Result {
	return Result{Success: true, Message: message}
}
