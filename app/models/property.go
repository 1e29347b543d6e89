package models

import (
	"time"

	"gorm.io/gorm"
)

// State is a lookup row for Australian states used in property addresses.
type State struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StateName string `gorm:"type:varchar(100)" json:"state_name"`
	StateCode string `gorm:"type:varchar(10)" json:"state_code"`
}

type Property struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AddressLine1 string          `gorm:"type:varchar(255)" json:"address_line_1"`
	Suburb       string          `gorm:"type:varchar(100)" json:"suburb"`
	StateID      uint            `gorm:"index" json:"state_id"`
	PostCode     string          `gorm:"type:varchar(10)" json:"post_code"`
	Agents       []AgentProperty `gorm:"foreignKey:PropertyID" json:"-"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AgentProperty links the agent user responsible for a property.
type AgentProperty struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"index:ux_agent_property,unique,priority:1" json:"property_id"`
	AgentID    uint      `gorm:"index:ux_agent_property,unique,priority:2" json:"agent_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Address renders the single-line property address used in emails.
func (p *Property) Address(state *State) string {
	code := ""
	if state != nil {
		code = state.StateCode
	}
	return p.AddressLine1 + ", " + p.Suburb + ", " + code + ", " + p.PostCode
}
