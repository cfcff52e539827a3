package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/storage"
	"gorm.io/gorm"
)

// Handler processes background tasks. It talks to the database and the
// object store directly rather than going through the services, since the
// work it does needs no permission gate.
type Handler struct {
	db     *gorm.DB
	store  storage.ObjectStore
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, store storage.ObjectStore, logger *slog.Logger) *Handler {
	return &Handler{db: db, store: store, logger: logger}
}

// HandleInvitationSweep moves expired pending invitations to revoked.
// Pending is the only live state; sweeping keeps the state machine closed
// over pending, accepted and revoked.
func (h *Handler) HandleInvitationSweep(ctx context.Context, t *asynq.Task) error {
	now := time.Now()
	result := h.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, now).
		Updates(map[string]interface{}{
			"status":     models.InvitationRevoked,
			"revoked_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("sweeping expired invitations: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Info("swept expired invitations", "count", result.RowsAffected)
	}
	return nil
}

// HandleLogoCleanup deletes an orphaned logo object from the store.
func (h *Handler) HandleLogoCleanup(ctx context.Context, t *asynq.Task) error {
	var payload LogoCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshaling logo cleanup payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Path == "" {
		return nil
	}
	if h.store == nil {
		h.logger.Warn("logo cleanup requested but no object store configured", "path", payload.Path)
		return nil
	}

	if err := h.store.Delete(ctx, payload.Path); err != nil {
		return fmt.Errorf("deleting logo object %s: %w", payload.Path, err)
	}
	h.logger.Info("deleted orphaned logo", "path", payload.Path)
	return nil
}

// RegisterHandlers wires the handler's task types into the mux.
func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvitationSweep, h.HandleInvitationSweep)
	mux.HandleFunc(TypeLogoCleanup, h.HandleLogoCleanup)
}
