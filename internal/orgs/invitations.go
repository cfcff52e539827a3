package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/validation"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/pkg/crypto"
	"gorm.io/gorm"
)

// InvitationTTL bounds how long an invitation token stays acceptable.
const InvitationTTL = 14 * 24 * time.Hour

const invitationTokenLength = 32

type InviteInput struct {
	OrganizationID uuid.UUID
	Email          string
	Role           string
	InviterID      uuid.UUID
}

// Invite issues a pending invitation carrying a fresh random token. Any
// existing member may invite; the granted role defaults to member.
// Delivering the token to the invitee happens out of band.
func (s *Service) Invite(ctx context.Context, input InviteInput) (*models.Invitation, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	role := input.Role
	if role == "" {
		role = string(RoleMember)
	}
	if !Role(role).Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.requireRole(ctx, input.OrganizationID, input.InviterID, RoleMember); err != nil {
		return nil, err
	}

	token, err := crypto.GenerateRandomString(invitationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generating invitation token: %w", err)
	}

	invitation := models.Invitation{
		OrganizationID: input.OrganizationID,
		Email:          email,
		Role:           role,
		Token:          token,
		Status:         models.InvitationPending,
		InvitedBy:      input.InviterID,
		ExpiresAt:      time.Now().Add(InvitationTTL),
	}

	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	return &invitation, nil
}

// Resend rotates the token of a pending invitation and extends its expiry.
// Restricted to pending invitations: accepted and revoked are terminal.
// Requires admin.
func (s *Service) Resend(ctx context.Context, invitationID, requesterID uuid.UUID) (*models.Invitation, error) {
	invitation, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, invitation.OrganizationID, requesterID, RoleAdmin); err != nil {
		return nil, err
	}
	if invitation.Status != models.InvitationPending {
		return nil, ErrInvitationNotPending
	}

	token, err := crypto.GenerateRandomString(invitationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generating invitation token: %w", err)
	}

	// The old token is invalidated implicitly: accept looks up by exact
	// token, so only the rotated value resolves.
	updates := map[string]interface{}{
		"token":       token,
		"status":      models.InvitationPending,
		"expires_at":  time.Now().Add(InvitationTTL),
		"accepted_at": nil,
		"revoked_at":  nil,
	}
	if err := s.db.WithContext(ctx).Model(invitation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("resending invitation: %w", err)
	}

	invitation.Token = token
	invitation.Status = models.InvitationPending
	invitation.AcceptedAt = nil
	invitation.RevokedAt = nil
	return invitation, nil
}

// Revoke moves a pending invitation to the revoked terminal state.
// Revoking an already-revoked invitation is a no-op returning the
// unchanged row; revoking an accepted one is rejected. Requires admin.
func (s *Service) Revoke(ctx context.Context, invitationID, requesterID uuid.UUID) (*models.Invitation, error) {
	invitation, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, invitation.OrganizationID, requesterID, RoleAdmin); err != nil {
		return nil, err
	}

	switch invitation.Status {
	case models.InvitationRevoked:
		return invitation, nil
	case models.InvitationAccepted:
		return nil, ErrInvitationNotPending
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     models.InvitationRevoked,
		"revoked_at": now,
	}
	if err := s.db.WithContext(ctx).Model(invitation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("revoking invitation: %w", err)
	}

	invitation.Status = models.InvitationRevoked
	invitation.RevokedAt = &now
	return invitation, nil
}

// Accept redeems a pending invitation token for the accepting user,
// creating the membership and marking the invitation accepted in one
// transaction. Unknown, consumed, revoked and expired tokens are all
// reported as not found so probing a token leaks nothing about its state.
// If the user is already a member the transaction rolls back, the
// invitation stays pending and ErrAlreadyMember is returned.
func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Membership, error) {
	if token == "" || userID == uuid.Nil {
		return nil, ErrInvitationNotFound
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Where("token = ? AND status = ?", token, models.InvitationPending).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("looking up invitation: %w", err)
	}
	if !invitation.ExpiresAt.IsZero() && invitation.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvitationNotFound
	}

	membership := models.Membership{
		OrganizationID: invitation.OrganizationID,
		UserID:         userID,
		Role:           invitation.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}
		now := time.Now()
		return tx.Model(&invitation).Updates(map[string]interface{}{
			"status":      models.InvitationAccepted,
			"accepted_at": now,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("accepting invitation: %w", err)
	}

	s.cache.Invalidate(ctx, userID)

	return &membership, nil
}

// ListInvitationsOptions filters and pages an invitation listing. A zero
// Limit disables paging.
type ListInvitationsOptions struct {
	Status string
	Offset int
	Limit  int
}

// ListInvitations returns an organization's invitations, newest first, along
// with the total count before paging. Any member may see them.
func (s *Service) ListInvitations(ctx context.Context, orgID, requesterID uuid.UUID, opts ListInvitationsOptions) ([]models.Invitation, int64, error) {
	if err := s.requireRole(ctx, orgID, requesterID, RoleMember); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("organization_id = ?", orgID)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting invitations: %w", err)
	}

	query = query.Order("created_at DESC")
	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	var invitations []models.Invitation
	if err := query.Find(&invitations).Error; err != nil {
		return nil, 0, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, total, nil
}

func (s *Service) getInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := s.db.WithContext(ctx).First(&invitation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("loading invitation: %w", err)
	}
	return &invitation, nil
}
