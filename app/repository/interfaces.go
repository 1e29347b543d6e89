package repository

import (
	"github.com/propertycare/pcs/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetSuperAdmin() (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// BookingRepository defines the interface for booking-related database operations
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uint) (*models.Booking, error)
	GetServices(bookingID uint) ([]models.BookingService, error)
	GetAgentID(propertyID uint) (uint, error)
	List(offset, limit int) ([]models.Booking, error)
	Count() (int64, error)
}

// InvoiceRepository defines the interface for invoice-related database operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByBookingID(bookingID uint) (*models.Invoice, error)
	GetByXeroInvoiceID(xeroInvoiceID string) (*models.Invoice, error)
	Update(invoice *models.Invoice) error
	List(offset, limit int) ([]models.Invoice, error)
	Count() (int64, error)
}

// XeroTokenRepository defines the interface for the singleton token row
type XeroTokenRepository interface {
	Get() (*models.XeroToken, error)
	Save(token *models.XeroToken) error
}

// EmailTemplateRepository defines the interface for email template lookups
type EmailTemplateRepository interface {
	GetByName(name string) (*models.EmailTemplate, error)
	Save(template *models.EmailTemplate) error
}

// StateRepository defines the interface for state lookups
type StateRepository interface {
	GetByID(id uint) (*models.State, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User          UserRepository
	Booking       BookingRepository
	Invoice       InvoiceRepository
	XeroToken     XeroTokenRepository
	EmailTemplate EmailTemplateRepository
	State         StateRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Booking:       NewBookingRepository(db),
		Invoice:       NewInvoiceRepository(db),
		XeroToken:     NewXeroTokenRepository(db),
		EmailTemplate: NewEmailTemplateRepository(db),
		State:         NewStateRepository(db),
	}
}
