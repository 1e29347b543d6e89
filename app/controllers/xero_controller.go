package controllers

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/propertycare/pcs/internal/pkg/database"
	"github.com/propertycare/pcs/internal/pkg/xero"
)

var (
	xeroService     *xero.Service
	xeroServiceOnce sync.Once
)

// getXeroService lazily builds the shared Xero service. One instance per
// process so the tenant cache and refresh mutex are shared.
func getXeroService() *xero.Service {
	xeroServiceOnce.Do(func() {
		xeroService = xero.NewServiceFromDB(database.GetDB())
	})
	return xeroService
}

// HandleXeroConnect redirects the admin to the Xero consent page.
func HandleXeroConnect(c *fiber.Ctx) error {
	url, err := getXeroService().LoginLink()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Xero OAuth is not configured"})
	}
	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleXeroCallback completes the consent flow and stores the token triple.
func HandleXeroCallback(c *fiber.Ctx) error {
	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_denied", "message": oauthErr})
	}

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing oauth code"})
	}

	if err := getXeroService().CompleteConsent(c.Context(), code); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "oauth_exchange_failed", "message": "Could not exchange oauth code"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Xero connected"})
}

type sendInvoiceRequest struct {
	BookingID uint   `json:"booking_id"`
	Status    int    `json:"status"`
	Amount    string `json:"amount"`
	DueDate   string `json:"due_date"`
}

// HandleSendInvoice issues an invoice for a booking.
func HandleSendInvoice(c *fiber.Ctx) error {
	var req sendInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	status, err := xero.ParseIssueStatus(req.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	amount := decimal.Zero
	if strings.TrimSpace(req.Amount) != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid amount"})
		}
	}

	var dueDate time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		dueDate, err = time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid due date, expected YYYY-MM-DD"})
		}
	}

	result := getXeroService().SendInvoice(c.Context(), req.BookingID, status, amount, dueDate)
	if !result.Success {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

type addPaymentRequest struct {
	InvoiceID uint   `json:"invoice_id"`
	Amount    string `json:"amount"`
}

// HandleAddPayment applies a payment to an existing invoice.
func HandleAddPayment(c *fiber.Ctx) error {
	var req addPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid amount"})
	}

	result := getXeroService().UpdateInvoice(c.Context(), req.InvoiceID, amount)
	if !result.Success {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

// HandleSyncInvoice reconciles a local invoice with Xero's current record.
func HandleSyncInvoice(c *fiber.Ctx) error {
	invoiceID, err := c.ParamsInt("id")
	if err != nil || invoiceID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid invoice id"})
	}

	result := getXeroService().SyncInvoiceStatus(c.Context(), uint(invoiceID))
	if !result.Success {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}
