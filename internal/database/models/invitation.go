package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation is a pending or resolved offer of organization membership.
// The token is a bearer credential; lookups always filter on token AND
// status so consumed or rotated tokens behave as unknown tokens.
type Invitation struct {
	Base
	OrganizationID uuid.UUID        `gorm:"type:uuid;index;not null" json:"organization_id"`
	Email          string           `gorm:"index;not null" json:"email"`
	Role           string           `gorm:"not null;default:'member'" json:"role"`
	Token          string           `gorm:"uniqueIndex;not null" json:"-"`
	Status         InvitationStatus `gorm:"index;not null;default:'pending'" json:"status"`
	InvitedBy      uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt      time.Time        `json:"expires_at"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	RevokedAt      *time.Time       `json:"revoked_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Invitation) TableName() string {
	return "invitations"
}
