package models

import "github.com/google/uuid"

// Board is a project container scoped to exactly one organization.
type Board struct {
	Base
	Title          string    `gorm:"not null" json:"title"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}
