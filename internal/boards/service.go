// Package boards implements the board lifecycle. Boards are thin project
// containers scoped to one organization; all access goes through the
// organization role gate.
package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/orgs"
	"gorm.io/gorm"
)

var (
	ErrInvalidTitle  = errors.New("board title is required")
	ErrBoardNotFound = errors.New("board not found")
)

type Service struct {
	db   *gorm.DB
	orgs *orgs.Service
}

func NewService(db *gorm.DB, orgService *orgs.Service) *Service {
	return &Service{db: db, orgs: orgService}
}

// Create inserts a board into an organization. Any member may create.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, title string, creatorID uuid.UUID) (*models.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	if allowed, err := s.orgs.CheckPermission(ctx, orgID, creatorID, orgs.RoleMember); err != nil {
		return nil, err
	} else if !allowed {
		return nil, orgs.ErrPermissionDenied
	}

	board := models.Board{
		Title:          title,
		OrganizationID: orgID,
		CreatedBy:      creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&board).Error; err != nil {
		return nil, fmt.Errorf("creating board: %w", err)
	}
	return &board, nil
}

// List returns an organization's boards, newest first.
func (s *Service) List(ctx context.Context, orgID, requesterID uuid.UUID) ([]models.Board, error) {
	if allowed, err := s.orgs.CheckPermission(ctx, orgID, requesterID, orgs.RoleMember); err != nil {
		return nil, err
	} else if !allowed {
		return nil, orgs.ErrPermissionDenied
	}

	var boards []models.Board
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return boards, nil
}

// Get loads a board and verifies the requester belongs to its organization.
func (s *Service) Get(ctx context.Context, boardID, requesterID uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := s.db.WithContext(ctx).First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("loading board: %w", err)
	}

	if allowed, err := s.orgs.CheckPermission(ctx, board.OrganizationID, requesterID, orgs.RoleMember); err != nil {
		return nil, err
	} else if !allowed {
		return nil, orgs.ErrPermissionDenied
	}
	return &board, nil
}

// Delete removes a board. Requires admin in the owning organization.
func (s *Service) Delete(ctx context.Context, boardID, requesterID uuid.UUID) error {
	var board models.Board
	if err := s.db.WithContext(ctx).First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoardNotFound
		}
		return fmt.Errorf("loading board: %w", err)
	}

	if allowed, err := s.orgs.CheckPermission(ctx, board.OrganizationID, requesterID, orgs.RoleAdmin); err != nil {
		return err
	} else if !allowed {
		return orgs.ErrPermissionDenied
	}

	if err := s.db.WithContext(ctx).Delete(&board).Error; err != nil {
		return fmt.Errorf("deleting board: %w", err)
	}
	return nil
}
