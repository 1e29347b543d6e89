package repository

import (
	"errors"

	"github.com/propertycare/pcs/app/models"
	"gorm.io/gorm"
)

// xeroTokenRepository implements the XeroTokenRepository interface. The
// token table holds exactly one row per installation.
type xeroTokenRepository struct {
	db *gorm.DB
}

// NewXeroTokenRepository creates a new token repository instance
func NewXeroTokenRepository(db *gorm.DB) XeroTokenRepository {
	return &xeroTokenRepository{db: db}
}

// Get retrieves the singleton token row
func (r *xeroTokenRepository) Get() (*models.XeroToken, error) {
	var token models.XeroToken
	err := r.db.Order("id asc").First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Save creates or overwrites the singleton token row
func (r *xeroTokenRepository) Save(token *models.XeroToken) error {
	var existing models.XeroToken
	err := r.db.Order("id asc").First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(token).Error
		}
		return err
	}
	token.ID = existing.ID
	return r.db.Save(token).Error
}

// emailTemplateRepository implements the EmailTemplateRepository interface
type emailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository creates a new email template repository instance
func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

// GetByName retrieves a template by its unique name
func (r *emailTemplateRepository) GetByName(name string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.Where("name = ?", name).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// Save creates or updates a template
func (r *emailTemplateRepository) Save(template *models.EmailTemplate) error {
	return r.db.Save(template).Error
}

// stateRepository implements the StateRepository interface
type stateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a new state repository instance
func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

// GetByID retrieves a state lookup row
func (r *stateRepository) GetByID(id uint) (*models.State, error) {
	var state models.State
	err := r.db.First(&state, id).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}
