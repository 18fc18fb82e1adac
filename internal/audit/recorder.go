package audit

import "context"

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes audit entries on a best-effort basis: a failed write is
// logged and swallowed so an audit problem never fails the mutation it
// describes.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a best-effort audit recorder.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record writes one audit entry for an entity mutation.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID string, details map[string]any) {
	if r == nil || r.repo == nil {
		return
	}

	entry := &AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := r.repo.Create(ctx, entry); err != nil && r.logger != nil {
		r.logger.Warn("audit write failed",
			"action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}
