package repository

import (
	"github.com/propertycare/pcs/app/models"
	"gorm.io/gorm"
)

// bookingRepository implements the BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking in the database
func (r *bookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID retrieves a booking with its property preloaded
func (r *bookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Preload("Property").First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetServices retrieves all service lines of a booking with the service
// definitions preloaded.
func (r *bookingRepository) GetServices(bookingID uint) ([]models.BookingService, error) {
	var services []models.BookingService
	err := r.db.Preload("Service").Where("booking_id = ?", bookingID).Find(&services).Error
	return services, err
}

// GetAgentID resolves the agent user responsible for a property.
func (r *bookingRepository) GetAgentID(propertyID uint) (uint, error) {
	var link models.AgentProperty
	err := r.db.Where("property_id = ?", propertyID).Order("id asc").First(&link).Error
	if err != nil {
		return 0, err
	}
	return link.AgentID, nil
}

// List retrieves bookings with pagination
func (r *bookingRepository) List(offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Offset(offset).Limit(limit).Order("created_at desc").Find(&bookings).Error
	return bookings, err
}

// Count returns the total number of bookings
func (r *bookingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Count(&count).Error
	return count, err
}
