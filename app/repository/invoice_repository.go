package repository

import (
	"github.com/propertycare/pcs/app/models"
	"gorm.io/gorm"
)

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create creates a new invoice row
func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// GetByID retrieves an invoice by its local ID
func (r *invoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByBookingID retrieves the invoice issued for a booking, if any
func (r *invoiceRepository) GetByBookingID(bookingID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("booking_id = ?", bookingID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByXeroInvoiceID retrieves an invoice by its remote Xero identifier
func (r *invoiceRepository) GetByXeroInvoiceID(xeroInvoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("xero_invoice_id = ?", xeroInvoiceID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update updates an existing invoice
func (r *invoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

// List retrieves invoices with pagination
func (r *invoiceRepository) List(offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Offset(offset).Limit(limit).Order("created_at desc").Find(&invoices).Error
	return invoices, err
}

// Count returns the total number of invoices
func (r *invoiceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Count(&count).Error
	return count, err
}
