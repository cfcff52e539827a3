// Package orgs implements the organization, membership and invitation
// lifecycles. All mutating operations are gated on the caller's recorded
// membership role; the database's unique constraints are the final arbiter
// for duplicate slugs and duplicate memberships.
package orgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/boardstack/internal/api/validation"
	"github.com/hugh/boardstack/internal/cache"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/storage"
	"github.com/hugh/boardstack/internal/tasks"
	"github.com/hugh/boardstack/pkg/crypto"
	"gorm.io/gorm"
)

func ValidateSlug(slug string) error {
	if !validation.IsValidSlug(slug) {
		return ErrInvalidSlug
	}
	return nil
}

type Service struct {
	db     *gorm.DB
	store  storage.ObjectStore
	cache  *cache.OrgListCache
	queue  *asynq.Client
	logger *slog.Logger
}

// NewService wires the organization service. store, orgCache and queue may
// each be nil: uploads, caching and background cleanup degrade gracefully.
func NewService(db *gorm.DB, store storage.ObjectStore, orgCache *cache.OrgListCache, queue *asynq.Client, logger *slog.Logger) *Service {
	return &Service{db: db, store: store, cache: orgCache, queue: queue, logger: logger}
}

// LogoUpload is an optional logo file attached to a create or update.
type LogoUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type CreateInput struct {
	Name      string
	Slug      string
	CreatorID uuid.UUID
	Logo      *LogoUpload
}

// Create validates and creates an organization, making the creator its
// owner in the same transaction. A supplied logo is uploaded first; upload
// failure degrades to creating the organization without a logo rather than
// aborting tenant creation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	if input.CreatorID == uuid.Nil {
		return nil, ErrPermissionDenied
	}

	// Advisory pre-check for a friendly error; the unique index decides
	// races between concurrent creates.
	available, err := s.CheckSlugAvailability(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrSlugTaken
	}

	// The ID is assigned up front so the logo can live under the org's
	// prefix before the row exists.
	org := models.Organization{
		Base:      models.Base{ID: uuid.New()},
		Name:      name,
		Slug:      input.Slug,
		CreatedBy: input.CreatorID,
	}

	if input.Logo != nil {
		if url, path, err := s.uploadLogo(ctx, org.ID, input.Logo); err != nil {
			s.logger.Warn("logo upload failed, creating organization without logo",
				"slug", input.Slug, "error", err)
		} else {
			org.LogoURL = url
			org.LogoPath = path
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		membership := models.Membership{
			OrganizationID: org.ID,
			UserID:         input.CreatorID,
			Role:           string(RoleOwner),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		// The organization never came into being, so its logo has no
		// owner; remove the object right away rather than via the
		// cleanup task.
		if org.LogoPath != "" && s.store != nil {
			if derr := s.store.Delete(ctx, org.LogoPath); derr != nil {
				s.logger.Warn("removing orphaned logo failed",
					"path", org.LogoPath, "error", derr)
			}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("creating organization: %w", err)
	}

	s.cache.Invalidate(ctx, input.CreatorID)

	return &org, nil
}

type UpdateInput struct {
	Name *string
	Slug *string
	Logo *LogoUpload
}

// Update applies a partial update. Requires at least admin; slug changes
// re-check uniqueness excluding the organization's own row.
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, input UpdateInput, requesterID uuid.UUID) (*models.Organization, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, orgID, requesterID, RoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		updates["name"] = name
	}

	if input.Slug != nil && *input.Slug != org.Slug {
		if err := ValidateSlug(*input.Slug); err != nil {
			return nil, err
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Organization{}).
			Where("slug = ? AND id <> ?", *input.Slug, orgID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking slug: %w", err)
		}
		if count > 0 {
			return nil, ErrSlugTaken
		}
		updates["slug"] = *input.Slug
	}

	if input.Logo != nil {
		if url, path, err := s.uploadLogo(ctx, org.ID, input.Logo); err != nil {
			s.logger.Warn("logo upload failed, keeping previous logo",
				"org_id", orgID, "error", err)
		} else {
			if org.LogoPath != "" && org.LogoPath != path {
				s.enqueueLogoCleanup(org.LogoPath)
			}
			updates["logo_url"] = url
			updates["logo_path"] = path
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(org).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrSlugTaken
			}
			return nil, fmt.Errorf("updating organization: %w", err)
		}
		s.invalidateMembers(ctx, orgID)
	}

	return org, nil
}

// Delete removes an organization and everything it owns in one transaction.
// Only the original creator may delete, a stricter requirement than admin.
func (s *Service) Delete(ctx context.Context, orgID, requesterID uuid.UUID) error {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if org.CreatedBy != requesterID {
		return ErrPermissionDenied
	}

	memberIDs, err := s.memberUserIDs(ctx, orgID)
	if err != nil {
		return err
	}

	// Hard delete throughout: the slug must become available again and the
	// unique indexes would otherwise keep soft-deleted rows in the way.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("organization_id = ?", orgID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("organization_id = ?", orgID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("organization_id = ?", orgID).Delete(&models.Board{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(org).Error
	})
	if err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}

	if org.LogoPath != "" {
		s.enqueueLogoCleanup(org.LogoPath)
	}
	s.cache.Invalidate(ctx, memberIDs...)

	return nil
}

func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("loading organization: %w", err)
	}
	return &org, nil
}

// UserOrganizations is the union of organizations the user created and
// organizations the user belongs to, with the membership rows describing
// the user's relationship to each.
type UserOrganizations struct {
	Organizations []models.Organization `json:"organizations"`
	Memberships   []models.Membership   `json:"memberships"`
}

// ListForUser returns the user's organizations, deduplicated by id and
// ordered most-recently-created first. Served read-through from the cache
// when one is configured.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) (*UserOrganizations, error) {
	var result UserOrganizations
	if s.cache.Get(ctx, userID, &result) {
		return &result, nil
	}

	var created []models.Organization
	if err := s.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Find(&created).Error; err != nil {
		return nil, fmt.Errorf("listing created organizations: %w", err)
	}

	var memberships []models.Membership
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(created))
	orgList := make([]models.Organization, 0, len(created)+len(memberships))
	for _, org := range created {
		seen[org.ID] = true
		orgList = append(orgList, org)
	}
	for _, m := range memberships {
		if m.Organization != nil && !seen[m.OrganizationID] {
			seen[m.OrganizationID] = true
			orgList = append(orgList, *m.Organization)
		}
	}
	sort.SliceStable(orgList, func(i, j int) bool {
		return orgList[i].CreatedAt.After(orgList[j].CreatedAt)
	})

	result = UserOrganizations{Organizations: orgList, Memberships: memberships}
	s.cache.Set(ctx, userID, &result)

	return &result, nil
}

// CheckSlugAvailability reports whether a slug is free. Not-found means
// available; any other lookup failure propagates so callers never present
// a failed check as availability.
func (s *Service) CheckSlugAvailability(ctx context.Context, slug string) (bool, error) {
	if err := ValidateSlug(slug); err != nil {
		return false, err
	}

	var org models.Organization
	err := s.db.WithContext(ctx).Select("id").Where("slug = ?", slug).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("checking slug availability: %w", err)
	}
	return false, nil
}

// ListMembers returns the memberships of an organization with their users.
// Any member may see the roster.
func (s *Service) ListMembers(ctx context.Context, orgID, requesterID uuid.UUID) ([]models.Membership, error) {
	if err := s.requireRole(ctx, orgID, requesterID, RoleMember); err != nil {
		return nil, err
	}

	var memberships []models.Membership
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return memberships, nil
}

// uploadLogo stores a logo under the organization's ID so objects stay
// addressable across slug renames.
func (s *Service) uploadLogo(ctx context.Context, orgID uuid.UUID, logo *LogoUpload) (url, path string, err error) {
	if s.store == nil {
		return "", "", errors.New("object storage is not configured")
	}

	name, err := crypto.GenerateRandomString(16)
	if err != nil {
		return "", "", err
	}
	ext := strings.ToLower(filepath.Ext(logo.Filename))
	path = fmt.Sprintf("logos/%s/%s%s", orgID, name, ext)

	contentType := logo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err = s.store.Upload(ctx, path, contentType, logo.Reader)
	if err != nil {
		return "", "", err
	}
	return url, path, nil
}

func (s *Service) enqueueLogoCleanup(path string) {
	if s.queue == nil || path == "" {
		return
	}
	task, err := tasks.NewLogoCleanupTask(tasks.LogoCleanupPayload{Path: path})
	if err != nil {
		s.logger.Warn("building logo cleanup task failed", "path", path, "error", err)
		return
	}
	if _, err := s.queue.Enqueue(task, asynq.Queue("low")); err != nil {
		s.logger.Warn("enqueueing logo cleanup failed", "path", path, "error", err)
	}
}

func (s *Service) memberUserIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("organization_id = ?", orgID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing member ids: %w", err)
	}
	return ids, nil
}

func (s *Service) invalidateMembers(ctx context.Context, orgID uuid.UUID) {
	if s.cache == nil {
		return
	}
	ids, err := s.memberUserIDs(ctx, orgID)
	if err != nil {
		s.logger.Warn("cache invalidation skipped", "org_id", orgID, "error", err)
		return
	}
	s.cache.Invalidate(ctx, ids...)
}
