package xero

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propertycare/pcs/app/models"
	"github.com/propertycare/pcs/internal/pkg/mail"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the narrow persistence port the Xero service needs. The
// GORM-backed implementation lives in repository.go; tests inject fakes.
type Repository interface {
	GetToken() (*models.XeroToken, error)
	SaveToken(token *models.XeroToken) error

	GetBookingByID(id uint) (*models.Booking, error)
	GetBookingServices(bookingID uint) ([]models.BookingService, error)
	GetAgentIDForProperty(propertyID uint) (uint, error)

	GetUserByID(id uint) (*models.User, error)
	SaveUser(user *models.User) error
	GetSuperAdmin() (*models.User, error)

	GetInvoiceByID(id uint) (*models.Invoice, error)
	GetInvoiceByBookingID(bookingID uint) (*models.Invoice, error)
	GetInvoiceByXeroID(xeroInvoiceID string) (*models.Invoice, error)
	SaveInvoice(invoice *models.Invoice) error

	GetEmailTemplate(name string) (*models.EmailTemplate, error)
	GetState(id uint) (*models.State, error)
}

// Mailer sends administrative and agent-facing notifications.
type Mailer interface {
	SendMail(to, subject, body string) error
	SendMailWithAttachments(to, subject, body string, attachments []mail.Attachment) error
}

type smtpMailer struct{}

func (smtpMailer) SendMail(to, subject, body string) error {
	return mail.SendMail(to, subject, body)
}

func (smtpMailer) SendMailWithAttachments(to, subject, body string, attachments []mail.Attachment) error {
	return mail.SendMailWithAttachments(to, subject, body, attachments)
}

// Service orchestrates the Xero integration: token lifecycle, invoice
// issuance, payments and status reconciliation. The mutex serializes
// refresh-then-use so concurrent requests cannot race on the stored token.
type Service struct {
	repo   Repository
	client *Client
	mailer Mailer

	mu       sync.Mutex
	tenantID string
}

// NewService creates a service from injected collaborators.
func NewService(repo Repository, client *Client, mailer Mailer) *Service {
	if mailer == nil {
		mailer = smtpMailer{}
	}
	return &Service{repo: repo, client: client, mailer: mailer}
}

// NewServiceFromDB creates a service wired to GORM persistence and SMTP mail.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewGormRepository(db), NewClientFromEnv(), smtpMailer{})
}

// LoginLink returns the consent URL an admin must visit to authorize PCS.
func (s *Service) LoginLink() (string, error) {
	return s.client.LoginURL()
}

// CompleteConsent exchanges the callback code and persists the token triple.
func (s *Service) CompleteConsent(ctx context.Context, code string) error {
	tokens, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	return s.saveTokens(tokens)
}

// SaveTokens persists an externally obtained token triple. Used when the
// consent flow terminates outside this process.
func (s *Service) SaveTokens(accessToken, refreshToken, identityToken string, expiresIn int) error {
	return s.saveTokens(&TokenResponse{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		IdentityToken: identityToken,
		ExpiresIn:     expiresIn,
	})
}

func (s *Service) saveTokens(tokens *TokenResponse) error {
	row := &models.XeroToken{
		AccessToken:   tokens.AccessToken,
		RefreshToken:  tokens.RefreshToken,
		IdentityToken: tokens.IdentityToken,
	}
	if tokens.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		row.ExpiresAt = &expiry
	}
	return s.repo.SaveToken(row)
}

// RefreshAccessToken refreshes and persists the token triple. On refresh
// rejection the super admin is emailed a fresh consent link and
// ErrTokenRefreshFailed is returned; the caller must abort its operation.
func (s *Service) RefreshAccessToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.refreshLocked(ctx)
	return err
}

// refreshLocked performs the refresh grant. Callers hold s.mu.
func (s *Service) refreshLocked(ctx context.Context) (*models.XeroToken, error) {
	stored, err := s.repo.GetToken()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}

	tokens, err := s.client.RefreshToken(ctx, stored.RefreshToken)
	if err != nil {
		s.notifyTokenExpired()
		return nil, fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}

	stored.AccessToken = tokens.AccessToken
	stored.RefreshToken = tokens.RefreshToken
	stored.IdentityToken = tokens.IdentityToken
	if tokens.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		stored.ExpiresAt = &expiry
	}
	if err := s.repo.SaveToken(stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// notifyTokenExpired emails the super admin a freshly generated consent
// link so the integration can be re-authorized. Sent once per failure.
func (s *Service) notifyTokenExpired() {
	admin, err := s.repo.GetSuperAdmin()
	if err != nil {
		log.Printf("xero: cannot resolve super admin for token notification: %v", err)
		return
	}

	loginURL, err := s.client.LoginURL()
	if err != nil {
		log.Printf("xero: cannot build consent url: %v", err)
		return
	}

	subject := "Xero access token expired"
	body := "The Xero refresh token was rejected. Please re-authorize the integration: " + loginURL
	if tmpl, err := s.repo.GetEmailTemplate(models.TemplateXeroAccessTokenRequest); err == nil {
		subject = tmpl.Subject
		body = tmpl.Render(map[string]string{"url": loginURL})
	}

	if err := s.mailer.SendMail(admin.Email, subject, body); err != nil {
		log.Printf("xero: failed to send token notification to %s: %v", admin.Email, err)
	}
}

// ensureSession refreshes the token and resolves the tenant id. The tenant
// id is cached for the lifetime of the service instance.
func (s *Service) ensureSession(ctx context.Context) (tenantID, accessToken string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.refreshLocked(ctx)
	if err != nil {
		return "", "", err
	}

	if s.tenantID == "" {
		id, err := s.client.ResolveTenant(ctx, token.AccessToken)
		if err != nil {
			return "", "", err
		}
		if id == "" {
			return "", "", ErrNoTenant
		}
		s.tenantID = id
	}
	return s.tenantID, token.AccessToken, nil
}

// SendInvoice issues a Xero invoice for a booking and persists the local
// record. Each step short-circuits; no local row is written when the remote
// call fails. At most one invoice may exist per booking.
func (s *Service) SendInvoice(ctx context.Context, bookingID uint, status IssueStatus, amount decimal.Decimal, dueDate time.Time) Result {
	tenantID, accessToken, err := s.ensureSession(ctx)
	if err != nil {
		return s.sessionFailure(err)
	}

	booking, err := s.repo.GetBookingByID(bookingID)
	if err != nil {
		return failure("Booking not found")
	}

	if existing, err := s.repo.GetInvoiceByBookingID(bookingID); err == nil && existing != nil {
		return failure("An invoice has already been issued for this booking")
	}

	agentID, err := s.repo.GetAgentIDForProperty(booking.PropertyID)
	if err != nil {
		return failure("No agent is assigned to this property")
	}

	agent, err := s.repo.GetUserByID(agentID)
	if err != nil {
		return failure("Agent user not found")
	}

	// Contact is created lazily, once, and cached on the user record.
	if !agent.HasXeroContact() {
		contactID, err := s.client.CreateContact(ctx, tenantID, accessToken, Contact{
			Name:         agent.FullName(),
			FirstName:    agent.FirstName,
			LastName:     agent.LastName,
			EmailAddress: agent.Email,
		})
		if err != nil || contactID == "" {
			return failure("Could not create Xero contact for agent")
		}
		agent.XeroContactID = contactID
		if err := s.repo.SaveUser(agent); err != nil {
			return failure("Could not persist Xero contact for agent")
		}
	}

	if _, err := uuid.Parse(agent.XeroContactID); err != nil {
		return failure("Agent has an invalid Xero contact id")
	}

	services, err := s.repo.GetBookingServices(bookingID)
	if err != nil || len(services) == 0 {
		return failure("Booking has no billable services")
	}

	lineItems := make([]LineItem, 0, len(services))
	totalServiceAmount := decimal.Zero
	for _, line := range services {
		if line.Service == nil {
			continue
		}
		totalServiceAmount = totalServiceAmount.Add(line.Service.Price)
		lineItems = append(lineItems, LineItem{
			Description: line.Service.ServiceName,
			Quantity:    1,
			UnitAmount:  line.Service.Price.InexactFloat64(),
			AccountCode: accountCode,
		})
	}
	if len(lineItems) == 0 {
		return failure("Booking has no billable services")
	}

	now := time.Now().UTC()
	remote, err := s.client.CreateInvoice(ctx, tenantID, accessToken, InvoiceDraft{
		ContactID: agent.XeroContactID,
		Date:      now,
		DueDate:   status.DueDate(now, dueDate),
		LineItems: lineItems,
	})
	if err != nil {
		return failure("Could not create invoice on Xero")
	}

	invoice := &models.Invoice{
		BookingID:         bookingID,
		PropertyID:        booking.PropertyID,
		AgentUserID:       agentID,
		XeroInvoiceID:     remote.InvoiceID,
		XeroInvoiceNumber: remote.InvoiceNumber,
		TotalAmount:       decimal.NewFromFloat(remote.Total),
		PaidAmount:        decimal.NewFromFloat(remote.AmountPaid),
		DueAmount:         decimal.NewFromFloat(remote.AmountDue),
		IssueDate:         ParseWireDate(remote.Date),
		DueDate:           ParseWireDate(remote.DueDate),
		Status:            remote.Status,
	}
	if err := s.repo.SaveInvoice(invoice); err != nil {
		return failure("Invoice created on Xero but could not be saved locally")
	}

	switch status {
	case IssueStatusPaid:
		if res := s.AddPayment(ctx, remote.InvoiceID, totalServiceAmount); !res.Success {
			return res
		}
	case IssueStatusPartiallyPaid:
		if res := s.AddPayment(ctx, remote.InvoiceID, amount); !res.Success {
			return res
		}
	}

	return success("Invoice sent to Xero")
}

// AddPayment records a payment against a Xero invoice and mirrors the
// updated due/paid amounts onto the local row.
func (s *Service) AddPayment(ctx context.Context, xeroInvoiceID string, amount decimal.Decimal) Result {
	tenantID, accessToken, err := s.ensureSession(ctx)
	if err != nil {
		return s.sessionFailure(err)
	}

	remote, err := s.client.CreatePayment(ctx, tenantID, accessToken, xeroInvoiceID, amount)
	if err != nil {
		return failure("Bad Request")
	}

	invoice, err := s.repo.GetInvoiceByXeroID(xeroInvoiceID)
	if err == nil && invoice != nil {
		invoice.DueAmount = decimal.NewFromFloat(remote.AmountDue)
		invoice.PaidAmount = decimal.NewFromFloat(remote.AmountPaid)
		if remote.Status != "" {
			invoice.Status = remote.Status
		}
		if err := s.repo.SaveInvoice(invoice); err != nil {
			return failure("Payment recorded on Xero but could not be saved locally")
		}
	}

	return success("Payment applied")
}

// UpdateInvoice applies a payment to an invoice identified by its local id.
func (s *Service) UpdateInvoice(ctx context.Context, invoiceID uint, amount decimal.Decimal) Result {
	invoice, err := s.repo.GetInvoiceByID(invoiceID)
	if err != nil {
		return failure("Invoice not found. Something went wrong")
	}
	return s.AddPayment(ctx, invoice.XeroInvoiceID, amount)
}

// SyncInvoiceStatus reconciles the local invoice row with Xero's current
// record. PAID forces due to zero and paid to the full total regardless of
// the remote amount fields; AUTHORISED mirrors the remote due amount and
// leaves paid unchanged; any other status is a no-op failure.
func (s *Service) SyncInvoiceStatus(ctx context.Context, invoiceID uint) Result {
	tenantID, accessToken, err := s.ensureSession(ctx)
	if err != nil {
		return s.sessionFailure(err)
	}

	invoice, err := s.repo.GetInvoiceByID(invoiceID)
	if err != nil {
		return failure("Invoice not found. Something went wrong")
	}

	remote, err := s.client.GetInvoice(ctx, tenantID, accessToken, invoice.XeroInvoiceID)
	if err != nil {
		return failure("Something went wrong")
	}

	switch remote.Status {
	case models.XeroStatusPaid:
		invoice.DueAmount = decimal.Zero
		invoice.PaidAmount = invoice.TotalAmount
		invoice.Status = models.XeroStatusPaid
	case models.XeroStatusAuthorised:
		invoice.DueAmount = decimal.NewFromFloat(remote.AmountDue)
		invoice.Status = models.XeroStatusAuthorised
	default:
		return failure("Something went wrong")
	}

	if err := s.repo.SaveInvoice(invoice); err != nil {
		return failure("Something went wrong")
	}
	return success("Invoice is synced with Xero")
}

// SendInvoiceEmail emails the invoice PDF to the booking's agent using the
// InvoicePdfAttachment template.
func (s *Service) SendInvoiceEmail(ctx context.Context, invoiceID uint, pdf []byte) error {
	_ = ctx
	invoice, err := s.repo.GetInvoiceByID(invoiceID)
	if err != nil {
		return ErrInvoiceNotFound
	}

	agent, err := s.repo.GetUserByID(invoice.AgentUserID)
	if err != nil {
		return ErrAgentNotFound
	}

	booking, err := s.repo.GetBookingByID(invoice.BookingID)
	if err != nil || booking.Property == nil {
		return ErrBookingNotFound
	}

	state, _ := s.repo.GetState(booking.Property.StateID)
	tmpl, err := s.repo.GetEmailTemplate(models.TemplateInvoicePdfAttachment)
	if err != nil {
		return err
	}

	body := tmpl.Render(map[string]string{
		"name":            agent.FirstName,
		"pdfFor":          "invoice",
		"PropertyAddress": booking.Property.Address(state),
	})

	var attachments []mail.Attachment
	if len(pdf) > 0 {
		attachments = append(attachments, mail.Attachment{
			Filename:    fmt.Sprintf("invoice-%s.pdf", invoice.XeroInvoiceNumber),
			ContentType: "application/pdf",
			Data:        pdf,
		})
	}
	return s.mailer.SendMailWithAttachments(agent.Email, tmpl.Subject, body, attachments)
}

func (s *Service) sessionFailure(err error) Result {
	switch {
	case errors.Is(err, ErrTokenRefreshFailed):
		return failure("Token expired! Please try after sometime")
	case errors.Is(err, ErrNotConfigured):
		return failure("Xero integration is not configured")
	case errors.Is(err, ErrNoTenant):
		return failure("No Xero organisation is connected")
	default:
		return failure("Something went wrong")
	}
}
