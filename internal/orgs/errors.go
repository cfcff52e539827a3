package orgs

import "errors"

var (
	ErrInvalidName          = errors.New("organization name is required")
	ErrInvalidSlug          = errors.New("slug must be at least 3 characters of lowercase letters, digits and hyphens")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidRole          = errors.New("invalid role")
	ErrSlugTaken            = errors.New("slug is already taken")
	ErrOrgNotFound          = errors.New("organization not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrAlreadyMember        = errors.New("user is already a member of this organization")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation is not pending")
)
