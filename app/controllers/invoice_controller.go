package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/propertycare/pcs/app/models"
	"github.com/propertycare/pcs/app/repository"
)

type invoiceResponse struct {
	models.Invoice
	DisplayStatus string `json:"display_status"`
}

// HandleListInvoices returns invoices with pagination.
func HandleListInvoices(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repo := repository.GetGlobalFactory().GetInvoiceRepository()
	invoices, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load invoices"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count invoices"})
	}

	now := time.Now().UTC()
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceResponse{Invoice: inv, DisplayStatus: inv.DisplayStatus(now)})
	}

	return c.JSON(fiber.Map{"invoices": out, "total": total, "offset": offset, "limit": limit})
}

// HandleGetInvoice returns one invoice by its local id.
func HandleGetInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid invoice id"})
	}

	repo := repository.GetGlobalFactory().GetInvoiceRepository()
	invoice, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Invoice not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load invoice"})
	}

	return c.JSON(invoiceResponse{Invoice: *invoice, DisplayStatus: invoice.DisplayStatus(time.Now().UTC())})
}
