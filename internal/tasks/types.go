package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInvitationSweep = "invitation:sweep"
	TypeLogoCleanup     = "logo:cleanup"
)

// NewInvitationSweepTask sweeps expired pending invitations into the
// revoked terminal state. Enqueued periodically by the worker.
func NewInvitationSweepTask() *asynq.Task {
	return asynq.NewTask(TypeInvitationSweep, nil)
}

// LogoCleanupPayload identifies an orphaned logo object left behind by an
// organization deletion or logo replacement.
type LogoCleanupPayload struct {
	Path string `json:"path"`
}

func NewLogoCleanupTask(payload LogoCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLogoCleanup, data), nil
}
