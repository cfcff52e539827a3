package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"gorm.io/gorm"
)

// Role is the ordered membership role enumeration: owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var roleRank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether a held role meets a required role: a role
// satisfies a requirement when it is equal to or senior to it.
func (r Role) Satisfies(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// CheckPermission answers whether the user holds at least the required role
// in the organization. A missing membership is (false, nil); a storage
// failure is (false, err) so callers can distinguish "denied" from
// "unavailable" and never treat a transient lookup failure as a grant.
func (s *Service) CheckPermission(ctx context.Context, orgID, userID uuid.UUID, required Role) (bool, error) {
	if orgID == uuid.Nil || userID == uuid.Nil || !required.Valid() {
		return false, nil
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up membership: %w", err)
	}

	return Role(membership.Role).Satisfies(required), nil
}

// requireRole is the gate used by mutating operations: it folds the
// permission check into the package error taxonomy.
func (s *Service) requireRole(ctx context.Context, orgID, userID uuid.UUID, required Role) error {
	allowed, err := s.CheckPermission(ctx, orgID, userID, required)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}
