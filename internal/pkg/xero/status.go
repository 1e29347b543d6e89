package xero

import (
	"fmt"
	"time"
)

// IssueStatus is how the caller wants a freshly issued invoice settled.
// The numeric values are part of the public API surface.
type IssueStatus int

const (
	// IssueStatusPaid settles the invoice in full immediately; the due date
	// is forced to the current calendar date.
	IssueStatusPaid IssueStatus = 1
	// IssueStatusPartiallyPaid applies a caller-supplied partial payment.
	IssueStatusPartiallyPaid IssueStatus = 2
	// IssueStatusUnpaid issues the invoice with the caller-supplied due date
	// and no payment.
	IssueStatusUnpaid IssueStatus = 3
)

// ParseIssueStatus validates a caller-supplied status code.
func ParseIssueStatus(code int) (IssueStatus, error) {
	switch IssueStatus(code) {
	case IssueStatusPaid, IssueStatusPartiallyPaid, IssueStatusUnpaid:
		return IssueStatus(code), nil
	default:
		return 0, fmt.Errorf("unknown invoice issue status %d", code)
	}
}

// DueDate resolves the invoice due date. There are exactly two cases: an
// immediately settled invoice is due today, everything else is due on the
// caller-supplied date.
func (s IssueStatus) DueDate(now, callerDate time.Time) time.Time {
	if s == IssueStatusPaid {
		return now.Truncate(24 * time.Hour)
	}
	return callerDate
}
