package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Remote invoice statuses as reported by Xero.
const (
	XeroStatusAuthorised = "AUTHORISED"
	XeroStatusPaid       = "PAID"
)

// Invoice mirrors one Xero invoice issued for a booking. XeroInvoiceID is
// immutable once set; only amounts and status change on reconciliation.
type Invoice struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BookingID         uint            `gorm:"uniqueIndex" json:"booking_id"`
	PropertyID        uint            `gorm:"index" json:"property_id"`
	AgentUserID       uint            `gorm:"index" json:"agent_user_id"`
	XeroInvoiceID     string          `gorm:"type:varchar(64);uniqueIndex" json:"xero_invoice_id"`
	XeroInvoiceNumber string          `gorm:"type:varchar(64)" json:"xero_invoice_number"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(12,2)" json:"paid_amount"`
	DueAmount         decimal.Decimal `gorm:"type:decimal(12,2)" json:"due_amount"`
	IssueDate         time.Time       `gorm:"type:date" json:"issue_date"`
	DueDate           time.Time       `gorm:"type:date" json:"due_date"`
	Status            string          `gorm:"type:varchar(20)" json:"status"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// DisplayStatus maps the stored Xero status to the label shown to agents:
// "Paid" for settled invoices, "Due" while the due date has not passed,
// "Overdue" afterwards. Unknown statuses render empty.
func (i *Invoice) DisplayStatus(now time.Time) string {
	switch i.Status {
	case XeroStatusPaid:
		return "Paid"
	case XeroStatusAuthorised:
		if !i.DueDate.Truncate(24 * time.Hour).Before(now.Truncate(24 * time.Hour)) {
			return "Due"
		}
		return "Overdue"
	default:
		return ""
	}
}
