package xero

import (
	"time"
)

// Fixed values the accounting side of PCS always uses. Every booking service
// is billed against the sales account with one unit per line.
const (
	accountCode     = "200"
	invoiceTypeSale = "ACCREC"
	lineAmountsIncl = "Inclusive"

	// Scopes requested during the consent flow.
	oauthScopes = "openid profile email offline_access files accounting.transactions accounting.contacts"
)

// TokenResponse is the provider token endpoint response for both the
// authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	IdentityToken string `json:"id_token"`
	ExpiresIn     int    `json:"expires_in"`
	TokenType     string `json:"token_type"`
	Scope         string `json:"scope"`
}

// Connection is one entry of the tenant connections listing.
type Connection struct {
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}

// Contact is the provider representation of a billable party.
type Contact struct {
	ContactID    string `json:"ContactID,omitempty"`
	Name         string `json:"Name,omitempty"`
	FirstName    string `json:"FirstName,omitempty"`
	LastName     string `json:"LastName,omitempty"`
	EmailAddress string `json:"EmailAddress,omitempty"`
}

// contactsDocument wraps contacts under the provider's "Contacts" key.
type contactsDocument struct {
	Contacts []Contact `json:"Contacts"`
}

// LineItem is one billable component of an invoice.
type LineItem struct {
	Description string  `json:"Description"`
	Quantity    float64 `json:"Quantity"`
	UnitAmount  float64 `json:"UnitAmount"`
	AccountCode string  `json:"AccountCode"`
}

// InvoiceDraft carries everything needed to create a remote invoice.
type InvoiceDraft struct {
	ContactID string
	Date      time.Time
	DueDate   time.Time
	LineItems []LineItem
}

type invoiceRequest struct {
	Type            string     `json:"Type"`
	Contact         Contact    `json:"Contact"`
	Date            string     `json:"Date"`
	DueDate         string     `json:"DueDate"`
	LineItems       []LineItem `json:"LineItems"`
	LineAmountTypes string     `json:"LineAmountTypes"`
	Status          string     `json:"Status"`
}

type invoicesRequestDocument struct {
	Invoices []invoiceRequest `json:"Invoices"`
}

// InvoiceResult is the provider's view of one invoice, returned from both
// invoice creation and status lookup.
type InvoiceResult struct {
	InvoiceID     string  `json:"InvoiceID"`
	InvoiceNumber string  `json:"InvoiceNumber"`
	Status        string  `json:"Status"`
	Total         float64 `json:"Total"`
	AmountDue     float64 `json:"AmountDue"`
	AmountPaid    float64 `json:"AmountPaid"`
	Date          string  `json:"DateString"`
	DueDate       string  `json:"DueDateString"`
}

// invoicesDocument wraps invoices under the provider's "Invoices" key.
type invoicesDocument struct {
	Invoices []InvoiceResult `json:"Invoices"`
}

type paymentRequest struct {
	Invoice struct {
		InvoiceID string `json:"InvoiceID"`
	} `json:"Invoice"`
	Account struct {
		Code string `json:"Code"`
	} `json:"Account"`
	Amount float64 `json:"Amount"`
	Date   string  `json:"Date"`
}

type paymentEntry struct {
	PaymentID string        `json:"PaymentID"`
	Invoice   InvoiceResult `json:"Invoice"`
}

// paymentsDocument wraps payments under the provider's "Payments" key.
type paymentsDocument struct {
	Payments []paymentEntry `json:"Payments"`
}

// wireDateLayouts are the date shapes the provider is known to emit.
var wireDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseWireDate parses a provider date string, returning the zero time for
// anything unparseable.
func ParseWireDate(s string) time.Time {
	for _, layout := range wireDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
