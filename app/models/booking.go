package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Booking struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	PropertyID uint             `gorm:"index" json:"property_id"`
	Property   *Property        `gorm:"foreignKey:PropertyID" json:"-"`
	Services   []BookingService `gorm:"foreignKey:BookingID" json:"-"`
	BookedAt   time.Time        `gorm:"type:timestamp" json:"booked_at"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

// Service is a billable offering (cleaning, inspection, ...) with a fixed price.
type Service struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ServiceName string          `gorm:"type:varchar(150)" json:"service_name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Gst         decimal.Decimal `gorm:"type:decimal(12,2)" json:"gst"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BookingService assigns one service line to a booking.
type BookingService struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookingID uint      `gorm:"index" json:"booking_id"`
	ServiceID uint      `gorm:"index" json:"service_id"`
	Service   *Service  `gorm:"foreignKey:ServiceID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
