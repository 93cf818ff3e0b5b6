package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type auditRepository struct {
	mu      sync.RWMutex
	entries []*model.AuditLog
}

func newAuditRepository() *auditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *log
	r.entries = append(r.entries, &c)
	return nil
}

// List walks the log backwards; entries are appended in timestamp order.
func (r *auditRepository) List(_ context.Context, userID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]*model.AuditLog, 0)
	for i := len(r.entries) - 1; i >= 0 && (limit <= 0 || len(logs) < limit); i-- {
		e := r.entries[i]
		if userID != uuid.Nil && e.UserID != userID {
			continue
		}
		c := *e
		logs = append(logs, &c)
	}
	return logs, nil
}
