package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/propertycare/pcs/app/models"
	"github.com/propertycare/pcs/internal/pkg/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider is an in-memory stand-in for the Xero API.
type fakeProvider struct {
	srv *httptest.Server

	failRefresh    bool
	refreshCount   int
	contactCreates int
	paymentAmounts []float64

	invoiceTotal float64
	remoteStatus string
	remoteDue    float64
	remotePaid   float64
}

func newFakeProvider(t *testing.T) *fakeProvider {
	f := &fakeProvider{
		invoiceTotal: 100,
		remoteStatus: models.XeroStatusAuthorised,
		remoteDue:    100,
		remotePaid:   0,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCount++
		if f.failRefresh {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%d","refresh_token":"refresh-%d","id_token":"identity","expires_in":1800}`, f.refreshCount, f.refreshCount)
	})
	mux.HandleFunc("/connections", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"tenantId":"tenant-1","tenantType":"ORGANISATION"}]`))
	})
	mux.HandleFunc("/api.xro/2.0/Contacts", func(w http.ResponseWriter, r *http.Request) {
		f.contactCreates++
		w.Write([]byte(`{"Contacts":[{"ContactID":"11111111-2222-3333-4444-555555555555"}]}`))
	})
	mux.HandleFunc("/api.xro/2.0/Invoices", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"Invoices":[{"InvoiceID":"remote-inv-1","InvoiceNumber":"INV-0001","Status":"AUTHORISED","Total":%g,"AmountDue":%g,"AmountPaid":0,"DateString":"2026-08-28","DueDateString":"2026-09-28"}]}`, f.invoiceTotal, f.invoiceTotal)
	})
	mux.HandleFunc("/api.xro/2.0/Invoices/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"Invoices":[{"InvoiceID":"remote-inv-1","Status":%q,"Total":%g,"AmountDue":%g,"AmountPaid":%g}]}`, f.remoteStatus, f.invoiceTotal, f.remoteDue, f.remotePaid)
	})
	mux.HandleFunc("/api.xro/2.0/Payments", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount float64 `json:"Amount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.paymentAmounts = append(f.paymentAmounts, req.Amount)

		paid := req.Amount
		due := f.invoiceTotal - req.Amount
		status := models.XeroStatusAuthorised
		if due <= 0 {
			status = models.XeroStatusPaid
		}
		fmt.Fprintf(w, `{"Payments":[{"PaymentID":"pay-1","Invoice":{"InvoiceID":"remote-inv-1","Status":%q,"Total":%g,"AmountDue":%g,"AmountPaid":%g}}]}`, status, f.invoiceTotal, due, paid)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	token      *models.XeroToken
	bookings   map[uint]*models.Booking
	services   map[uint][]models.BookingService
	agents     map[uint]uint // propertyID -> agentID
	users      map[uint]*models.User
	superAdmin *models.User
	invoices   map[uint]*models.Invoice
	nextID     uint
	templates  map[string]*models.EmailTemplate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		token:     &models.XeroToken{ID: 1, AccessToken: "stored-access", RefreshToken: "stored-refresh"},
		bookings:  map[uint]*models.Booking{},
		services:  map[uint][]models.BookingService{},
		agents:    map[uint]uint{},
		users:     map[uint]*models.User{},
		invoices:  map[uint]*models.Invoice{},
		templates: map[string]*models.EmailTemplate{},
	}
}

func (r *fakeRepo) GetToken() (*models.XeroToken, error) {
	if r.token == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.token, nil
}

func (r *fakeRepo) SaveToken(token *models.XeroToken) error {
	r.token = token
	return nil
}

func (r *fakeRepo) GetBookingByID(id uint) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeRepo) GetBookingServices(bookingID uint) ([]models.BookingService, error) {
	return r.services[bookingID], nil
}

func (r *fakeRepo) GetAgentIDForProperty(propertyID uint) (uint, error) {
	id, ok := r.agents[propertyID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
}

func (r *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeRepo) SaveUser(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepo) GetSuperAdmin() (*models.User, error) {
	if r.superAdmin == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.superAdmin, nil
}

func (r *fakeRepo) GetInvoiceByID(id uint) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *fakeRepo) GetInvoiceByBookingID(bookingID uint) (*models.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.BookingID == bookingID {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetInvoiceByXeroID(xeroInvoiceID string) (*models.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.XeroInvoiceID == xeroInvoiceID {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) SaveInvoice(invoice *models.Invoice) error {
	if invoice.ID == 0 {
		r.nextID++
		invoice.ID = r.nextID
	}
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *fakeRepo) GetEmailTemplate(name string) (*models.EmailTemplate, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tmpl, nil
}

func (r *fakeRepo) GetState(id uint) (*models.State, error) {
	return &models.State{ID: id, StateCode: "NSW"}, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type recordMailer struct {
	sent []sentMail
}

func (m *recordMailer) SendMail(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordMailer) SendMailWithAttachments(to, subject, body string, attachments []mail.Attachment) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeProvider, *recordMailer) {
	provider := newFakeProvider(t)
	repo := newFakeRepo()
	mailer := &recordMailer{}

	repo.superAdmin = &models.User{ID: 99, FirstName: "Root", Email: "admin@pcs.example", Role: models.ROLE_SUPER_ADMIN}

	// Booking 1 on property 10, agent user 5, two services totalling 100.
	repo.bookings[1] = &models.Booking{ID: 1, PropertyID: 10, Property: &models.Property{ID: 10, AddressLine1: "1 Main St", Suburb: "Sydney", StateID: 2, PostCode: "2000"}}
	repo.agents[10] = 5
	repo.users[5] = &models.User{ID: 5, FirstName: "Jane", LastName: "Smith", Email: "jane@example.com", Role: models.ROLE_AGENT}
	repo.services[1] = []models.BookingService{
		{ID: 1, BookingID: 1, ServiceID: 1, Service: &models.Service{ID: 1, ServiceName: "End of lease clean", Price: decimal.NewFromInt(60)}},
		{ID: 2, BookingID: 1, ServiceID: 2, Service: &models.Service{ID: 2, ServiceName: "Pest control", Price: decimal.NewFromInt(40)}},
	}

	svc := NewService(repo, testClient(provider.srv), mailer)
	return svc, repo, provider, mailer
}

func TestSendInvoice_Paid(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	result := svc.SendInvoice(context.Background(), 1, IssueStatusPaid, decimal.Zero, time.Time{})
	require.True(t, result.Success, result.Message)

	// Payment for the full service total was applied.
	require.Len(t, provider.paymentAmounts, 1)
	assert.Equal(t, float64(100), provider.paymentAmounts[0])

	invoice, err := repo.GetInvoiceByBookingID(1)
	require.NoError(t, err)
	assert.Equal(t, "remote-inv-1", invoice.XeroInvoiceID)
	assert.Equal(t, "INV-0001", invoice.XeroInvoiceNumber)
	assert.True(t, invoice.DueAmount.IsZero(), "due amount should be zero, got %s", invoice.DueAmount)
	assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(100)), "paid amount should equal service total, got %s", invoice.PaidAmount)
	assert.Equal(t, models.XeroStatusPaid, invoice.Status)
}

func TestSendInvoice_PartiallyPaid(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	result := svc.SendInvoice(context.Background(), 1, IssueStatusPartiallyPaid, decimal.NewFromInt(30), time.Now().AddDate(0, 1, 0))
	require.True(t, result.Success, result.Message)

	// A payment of exactly the caller amount was applied.
	require.Len(t, provider.paymentAmounts, 1)
	assert.Equal(t, float64(30), provider.paymentAmounts[0])

	invoice, err := repo.GetInvoiceByBookingID(1)
	require.NoError(t, err)
	assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(70)))
}

func TestSendInvoice_Unpaid_NoPayment(t *testing.T) {
	svc, _, provider, _ := newTestService(t)

	result := svc.SendInvoice(context.Background(), 1, IssueStatusUnpaid, decimal.Zero, time.Now().AddDate(0, 1, 0))
	require.True(t, result.Success, result.Message)
	assert.Empty(t, provider.paymentAmounts)
}

func TestSendInvoice_DuplicateRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	first := svc.SendInvoice(context.Background(), 1, IssueStatusUnpaid, decimal.Zero, time.Now().AddDate(0, 1, 0))
	require.True(t, first.Success, first.Message)

	second := svc.SendInvoice(context.Background(), 1, IssueStatusUnpaid, decimal.Zero, time.Now().AddDate(0, 1, 0))
	assert.False(t, second.Success)
	assert.Contains(t, second.Message, "already been issued")
}

func TestSendInvoice_ContactCreatedOnce(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	// Second booking for the same property/agent.
	repo.bookings[2] = &models.Booking{ID: 2, PropertyID: 10}
	repo.services[2] = []models.BookingService{
		{ID: 3, BookingID: 2, ServiceID: 1, Service: &models.Service{ID: 1, ServiceName: "Garden maintenance", Price: decimal.NewFromInt(50)}},
	}

	first := svc.SendInvoice(context.Background(), 1, IssueStatusUnpaid, decimal.Zero, time.Now().AddDate(0, 1, 0))
	require.True(t, first.Success, first.Message)
	assert.Equal(t, 1, provider.contactCreates)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", repo.users[5].XeroContactID)

	second := svc.SendInvoice(context.Background(), 2, IssueStatusUnpaid, decimal.Zero, time.Now().AddDate(0, 1, 0))
	require.True(t, second.Success, second.Message)
	assert.Equal(t, 1, provider.contactCreates, "cached contact id must be reused")
}

func TestSendInvoice_NoServices(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.services[1] = nil

	result := svc.SendInvoice(context.Background(), 1, IssueStatusUnpaid, decimal.Zero, time.Now())
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "billable services")
}

func TestSendInvoice_BookingMissing(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	result := svc.SendInvoice(context.Background(), 42, IssueStatusUnpaid, decimal.Zero, time.Now())
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Booking not found")
}

func TestSendInvoice_RefreshFailureAborts(t *testing.T) {
	svc, repo, provider, mailer := newTestService(t)
	provider.failRefresh = true

	result := svc.SendInvoice(context.Background(), 1, IssueStatusPaid, decimal.Zero, time.Time{})
	assert.False(t, result.Success)
	assert.Equal(t, "Token expired! Please try after sometime", result.Message)

	// Exactly one admin notification with a valid authorization URL.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "admin@pcs.example", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "client_id=client-id")
	assert.Contains(t, mailer.sent[0].body, "login.example")

	// No local invoice was written.
	_, err := repo.GetInvoiceByBookingID(1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshAccessToken_PersistsNewTriple(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	require.NoError(t, svc.RefreshAccessToken(context.Background()))
	assert.Equal(t, "access-1", repo.token.AccessToken)
	assert.Equal(t, "refresh-1", repo.token.RefreshToken)
	require.NotNil(t, repo.token.ExpiresAt)
	assert.True(t, repo.token.ExpiresAt.After(time.Now().UTC()))
}

func TestRefreshAccessToken_NotConfigured(t *testing.T) {
	svc, repo, _, mailer := newTestService(t)
	repo.token = nil

	err := svc.RefreshAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, mailer.sent)
}

func TestRefreshAccessToken_UsesTemplate(t *testing.T) {
	svc, repo, provider, mailer := newTestService(t)
	provider.failRefresh = true
	repo.templates[models.TemplateXeroAccessTokenRequest] = &models.EmailTemplate{
		Name:    models.TemplateXeroAccessTokenRequest,
		Subject: "Action required",
		Body:    `<a href="{url}">{url}</a>`,
	}

	err := svc.RefreshAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrTokenRefreshFailed)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Action required", mailer.sent[0].subject)
	assert.NotContains(t, mailer.sent[0].body, "{url}")
	assert.Contains(t, mailer.sent[0].body, "response_type=code")
}

func TestSyncInvoiceStatus_PaidForcesAmounts(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	invoice := &models.Invoice{
		BookingID:     1,
		XeroInvoiceID: "remote-inv-1",
		TotalAmount:   decimal.NewFromInt(100),
		PaidAmount:    decimal.NewFromInt(20),
		DueAmount:     decimal.NewFromInt(80),
		Status:        models.XeroStatusAuthorised,
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	// Remote disagrees with itself: despite due=5/paid=95 the PAID status
	// wins and the local row is forced to due=0 paid=total.
	provider.remoteStatus = models.XeroStatusPaid
	provider.remoteDue = 5
	provider.remotePaid = 95

	result := svc.SyncInvoiceStatus(context.Background(), invoice.ID)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Invoice is synced with Xero", result.Message)

	assert.True(t, invoice.DueAmount.IsZero())
	assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.XeroStatusPaid, invoice.Status)
}

func TestSyncInvoiceStatus_AuthorisedMirrorsDue(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	invoice := &models.Invoice{
		BookingID:     1,
		XeroInvoiceID: "remote-inv-1",
		TotalAmount:   decimal.NewFromInt(100),
		PaidAmount:    decimal.NewFromInt(20),
		DueAmount:     decimal.NewFromInt(80),
		Status:        models.XeroStatusAuthorised,
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	provider.remoteStatus = models.XeroStatusAuthorised
	provider.remoteDue = 60
	provider.remotePaid = 40

	result := svc.SyncInvoiceStatus(context.Background(), invoice.ID)
	require.True(t, result.Success, result.Message)

	assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(60)))
	// Paid amount is left unchanged for AUTHORISED.
	assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(20)))
}

func TestSyncInvoiceStatus_Idempotent(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	invoice := &models.Invoice{
		BookingID:     1,
		XeroInvoiceID: "remote-inv-1",
		TotalAmount:   decimal.NewFromInt(100),
		DueAmount:     decimal.NewFromInt(100),
		Status:        models.XeroStatusAuthorised,
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	provider.remoteStatus = models.XeroStatusPaid

	first := svc.SyncInvoiceStatus(context.Background(), invoice.ID)
	require.True(t, first.Success)
	dueAfterFirst := invoice.DueAmount
	paidAfterFirst := invoice.PaidAmount

	second := svc.SyncInvoiceStatus(context.Background(), invoice.ID)
	require.True(t, second.Success)
	assert.True(t, invoice.DueAmount.Equal(dueAfterFirst))
	assert.True(t, invoice.PaidAmount.Equal(paidAfterFirst))
}

func TestSyncInvoiceStatus_UnknownStatus(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	invoice := &models.Invoice{
		BookingID:     1,
		XeroInvoiceID: "remote-inv-1",
		TotalAmount:   decimal.NewFromInt(100),
		DueAmount:     decimal.NewFromInt(100),
		Status:        models.XeroStatusAuthorised,
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	provider.remoteStatus = "VOIDED"

	result := svc.SyncInvoiceStatus(context.Background(), invoice.ID)
	assert.False(t, result.Success)
	assert.Equal(t, "Something went wrong", result.Message)
	// Local state untouched.
	assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(100)))
}

func TestUpdateInvoice_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	result := svc.UpdateInvoice(context.Background(), 7, decimal.NewFromInt(10))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Invoice not found")
}

func TestUpdateInvoice_AppliesPayment(t *testing.T) {
	svc, repo, provider, _ := newTestService(t)

	invoice := &models.Invoice{
		BookingID:     1,
		XeroInvoiceID: "remote-inv-1",
		TotalAmount:   decimal.NewFromInt(100),
		DueAmount:     decimal.NewFromInt(100),
		Status:        models.XeroStatusAuthorised,
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	result := svc.UpdateInvoice(context.Background(), invoice.ID, decimal.NewFromInt(25))
	require.True(t, result.Success, result.Message)

	require.Len(t, provider.paymentAmounts, 1)
	assert.Equal(t, float64(25), provider.paymentAmounts[0])
	assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(25)))
	assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(75)))
}

func TestSendInvoiceEmail(t *testing.T) {
	svc, repo, _, mailer := newTestService(t)

	repo.templates[models.TemplateInvoicePdfAttachment] = &models.EmailTemplate{
		Name:    models.TemplateInvoicePdfAttachment,
		Subject: "Your invoice",
		Body:    "Hi {name}, attached is the {pdfFor} for {PropertyAddress}.",
	}
	invoice := &models.Invoice{
		BookingID:         1,
		AgentUserID:       5,
		XeroInvoiceID:     "remote-inv-1",
		XeroInvoiceNumber: "INV-0001",
	}
	require.NoError(t, repo.SaveInvoice(invoice))

	err := svc.SendInvoiceEmail(context.Background(), invoice.ID, []byte("%PDF-1.4"))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jane@example.com", mailer.sent[0].to)
	assert.True(t, strings.Contains(mailer.sent[0].body, "Hi Jane"))
	assert.Contains(t, mailer.sent[0].body, "1 Main St, Sydney, NSW, 2000")
	assert.Contains(t, mailer.sent[0].body, "invoice")
}
