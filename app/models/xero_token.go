package models

import "time"

// XeroToken is the singleton OAuth2 token triple for the Xero integration.
// It is created once during the initial consent flow and overwritten on
// every successful refresh.
type XeroToken struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AccessToken   string     `gorm:"type:text" json:"-"`
	RefreshToken  string     `gorm:"type:text" json:"-"`
	IdentityToken string     `gorm:"type:text" json:"-"`
	ExpiresAt     *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
