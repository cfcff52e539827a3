package models

import "github.com/google/uuid"

type Organization struct {
	Base
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	LogoURL   string    `json:"logo_url,omitempty"`
	LogoPath  string    `json:"-"` // object-store key, used for cleanup
	CreatedBy uuid.UUID `gorm:"type:uuid;index;not null" json:"created_by"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:OrganizationID" json:"-"`
	Invitations []Invitation `gorm:"foreignKey:OrganizationID" json:"-"`
	Boards      []Board      `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Membership relates a user to an organization with a role.
// The composite unique index is the authoritative guard against
// duplicate memberships; violations surface as gorm.ErrDuplicatedKey.
type Membership struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_org_user;not null" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_org_user;not null" json:"user_id"`
	Role           string    `gorm:"not null;default:'member'" json:"role"` // owner, admin, member

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}
