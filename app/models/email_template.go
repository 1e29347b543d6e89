package models

import (
	"strings"
	"time"
)

// Well-known template names.
const (
	TemplateXeroAccessTokenRequest = "XeroAccessTokenRequest"
	TemplateInvoicePdfAttachment   = "InvoicePdfAttachment"
)

type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex" json:"name"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Render substitutes {placeholder} tokens in the template body.
func (t *EmailTemplate) Render(values map[string]string) string {
	body := t.Body
	for key, val := range values {
		body = strings.ReplaceAll(body, "{"+key+"}", val)
	}
	return body
}
