package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/propertycare/pcs/internal/pkg/env"
	"github.com/shopspring/decimal"
)

const (
	defaultAuthorizeURL   = "https://login.xero.com/identity/connect/authorize"
	defaultTokenURL       = "https://identity.xero.com/connect/token"
	defaultConnectionsURL = "https://api.xero.com/connections"
	defaultContactsURL    = "https://api.xero.com/api.xro/2.0/Contacts"
	defaultInvoicesURL    = "https://api.xero.com/api.xro/2.0/Invoices"
	defaultPaymentsURL    = "https://api.xero.com/api.xro/2.0/Payments"
)

// Client speaks the provider's HTTPS JSON endpoints. It holds no state
// beyond configuration; tokens and tenant ids are passed per call.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	State        string

	AuthorizeURL   string
	TokenURL       string
	ConnectionsURL string
	ContactsURL    string
	InvoicesURL    string
	PaymentsURL    string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		ClientID:       strings.TrimSpace(env.GetEnv("XERO_CLIENT_ID", "")),
		ClientSecret:   strings.TrimSpace(env.GetEnv("XERO_CLIENT_SECRET", "")),
		RedirectURI:    strings.TrimSpace(env.GetEnv("XERO_REDIRECT_URI", "")),
		State:          strings.TrimSpace(env.GetEnv("XERO_OAUTH_STATE", "123")),
		AuthorizeURL:   strings.TrimSpace(env.GetEnv("XERO_AUTHORIZE_URL", defaultAuthorizeURL)),
		TokenURL:       strings.TrimSpace(env.GetEnv("XERO_TOKEN_URL", defaultTokenURL)),
		ConnectionsURL: strings.TrimSpace(env.GetEnv("XERO_CONNECTIONS_URL", defaultConnectionsURL)),
		ContactsURL:    strings.TrimSpace(env.GetEnv("XERO_CONTACTS_URL", defaultContactsURL)),
		InvoicesURL:    strings.TrimSpace(env.GetEnv("XERO_INVOICES_URL", defaultInvoicesURL)),
		PaymentsURL:    strings.TrimSpace(env.GetEnv("XERO_PAYMENTS_URL", defaultPaymentsURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// LoginURL builds the consent URL the admin must visit to (re-)authorize
// the integration. Pure function of configuration.
func (c *Client) LoginURL() (string, error) {
	if strings.TrimSpace(c.ClientID) == "" {
		return "", errors.New("XERO_CLIENT_ID is not configured")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return "", errors.New("XERO_REDIRECT_URI is not configured")
	}
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("invalid XERO_AUTHORIZE_URL: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", oauthScopes)
	q.Set("state", c.State)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades a consent code for the initial token triple.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, errors.New("XERO_CLIENT_ID/XERO_CLIENT_SECRET are not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("oauth code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)

	return c.requestToken(ctx, form)
}

// RefreshToken exchanges a refresh token for a fresh token triple.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, errors.New("XERO_CLIENT_ID/XERO_CLIENT_SECRET are not configured")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.New("refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", strings.TrimSpace(refreshToken))
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("scope", "offline_access")

	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token grant status=%d body=%s", ErrRemoteCallFailed, resp.StatusCode, string(body))
	}

	var out TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("token grant returned empty access_token")
	}
	return &out, nil
}

// ResolveTenant lists the authorized connections and returns the first
// tenant id. An empty string means no tenant is connected.
func (c *Client) ResolveTenant(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ConnectionsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: connections status=%d", ErrRemoteCallFailed, resp.StatusCode)
	}

	var connections []Connection
	if err := json.Unmarshal(body, &connections); err != nil {
		return "", err
	}
	if len(connections) == 0 {
		return "", nil
	}
	return connections[0].TenantID, nil
}

// CreateContact creates a remote contact and returns its id. An empty id
// with nil error never happens; failures are errors.
func (c *Client) CreateContact(ctx context.Context, tenantID, accessToken string, contact Contact) (string, error) {
	doc := contactsDocument{Contacts: []Contact{contact}}

	var out contactsDocument
	if err := c.postJSON(ctx, c.ContactsURL, tenantID, accessToken, doc, &out); err != nil {
		return "", err
	}
	if len(out.Contacts) == 0 {
		return "", fmt.Errorf("%w: contacts response is empty", ErrRemoteCallFailed)
	}
	return out.Contacts[0].ContactID, nil
}

// CreateInvoice creates an accounts-receivable invoice in AUTHORISED state
// with inclusive line amounts.
func (c *Client) CreateInvoice(ctx context.Context, tenantID, accessToken string, draft InvoiceDraft) (*InvoiceResult, error) {
	req := invoiceRequest{
		Type:            invoiceTypeSale,
		Contact:         Contact{ContactID: draft.ContactID},
		Date:            draft.Date.Format("2006-01-02"),
		DueDate:         draft.DueDate.Format("2006-01-02"),
		LineItems:       draft.LineItems,
		LineAmountTypes: lineAmountsIncl,
		Status:          "AUTHORISED",
	}

	var out invoicesDocument
	if err := c.postJSON(ctx, c.InvoicesURL, tenantID, accessToken, invoicesRequestDocument{Invoices: []invoiceRequest{req}}, &out); err != nil {
		return nil, err
	}
	if len(out.Invoices) == 0 {
		return nil, fmt.Errorf("%w: invoices response is empty", ErrRemoteCallFailed)
	}
	return &out.Invoices[0], nil
}

// CreatePayment records a payment dated today against an invoice and
// returns the provider's updated view of that invoice.
func (c *Client) CreatePayment(ctx context.Context, tenantID, accessToken, invoiceID string, amount decimal.Decimal) (*InvoiceResult, error) {
	var req paymentRequest
	req.Invoice.InvoiceID = invoiceID
	req.Account.Code = accountCode
	req.Amount = amount.InexactFloat64()
	req.Date = time.Now().UTC().Format("2006-01-02")

	var out paymentsDocument
	if err := c.postJSON(ctx, c.PaymentsURL, tenantID, accessToken, req, &out); err != nil {
		return nil, err
	}
	if len(out.Payments) == 0 {
		return nil, fmt.Errorf("%w: payments response is empty", ErrRemoteCallFailed)
	}
	return &out.Payments[0].Invoice, nil
}

// GetInvoice fetches the provider's current record of an invoice.
func (c *Client) GetInvoice(ctx context.Context, tenantID, accessToken, invoiceID string) (*InvoiceResult, error) {
	endpoint := strings.TrimRight(c.InvoicesURL, "/") + "/" + url.PathEscape(invoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setAPIHeaders(req, tenantID, accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: invoice lookup status=%d", ErrRemoteCallFailed, resp.StatusCode)
	}

	var out invoicesDocument
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if len(out.Invoices) == 0 {
		return nil, fmt.Errorf("%w: invoices response is empty", ErrRemoteCallFailed)
	}
	return &out.Invoices[0], nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, tenantID, accessToken string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.setAPIHeaders(req, tenantID, accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status=%d body=%s", ErrRemoteCallFailed, resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

func (c *Client) setAPIHeaders(req *http.Request, tenantID, accessToken string) {
	req.Header.Set("xero-tenant-id", tenantID)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
