package xero

import (
	"github.com/propertycare/pcs/app/models"
	"github.com/propertycare/pcs/app/repository"
	"gorm.io/gorm"
)

// gormRepository adapts the application repositories to the narrow port the
// Xero service consumes.
type gormRepository struct {
	repos *repository.Repositories
}

// NewGormRepository creates a Repository backed by GORM.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{repos: repository.NewRepositories(db)}
}

func (r *gormRepository) GetToken() (*models.XeroToken, error) {
	return r.repos.XeroToken.Get()
}

func (r *gormRepository) SaveToken(token *models.XeroToken) error {
	return r.repos.XeroToken.Save(token)
}

func (r *gormRepository) GetBookingByID(id uint) (*models.Booking, error) {
	return r.repos.Booking.GetByID(id)
}

func (r *gormRepository) GetBookingServices(bookingID uint) ([]models.BookingService, error) {
	return r.repos.Booking.GetServices(bookingID)
}

func (r *gormRepository) GetAgentIDForProperty(propertyID uint) (uint, error) {
	return r.repos.Booking.GetAgentID(propertyID)
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	return r.repos.User.GetByID(id)
}

func (r *gormRepository) SaveUser(user *models.User) error {
	return r.repos.User.Update(user)
}

func (r *gormRepository) GetSuperAdmin() (*models.User, error) {
	return r.repos.User.GetSuperAdmin()
}

func (r *gormRepository) GetInvoiceByID(id uint) (*models.Invoice, error) {
	return r.repos.Invoice.GetByID(id)
}

func (r *gormRepository) GetInvoiceByBookingID(bookingID uint) (*models.Invoice, error) {
	return r.repos.Invoice.GetByBookingID(bookingID)
}

func (r *gormRepository) GetInvoiceByXeroID(xeroInvoiceID string) (*models.Invoice, error) {
	return r.repos.Invoice.GetByXeroInvoiceID(xeroInvoiceID)
}

func (r *gormRepository) SaveInvoice(invoice *models.Invoice) error {
	if invoice.ID == 0 {
		return r.repos.Invoice.Create(invoice)
	}
	return r.repos.Invoice.Update(invoice)
}

func (r *gormRepository) GetEmailTemplate(name string) (*models.EmailTemplate, error) {
	return r.repos.EmailTemplate.GetByName(name)
}

func (r *gormRepository) GetState(id uint) (*models.State, error) {
	return r.repos.State.GetByID(id)
}
