package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
)

type recordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*model.Record
}

func newRecordRepository() *recordRepository {
	return &recordRepository{records: make(map[uuid.UUID]*model.Record)}
}

func copyRecord(r *model.Record, withData bool) *model.Record {
	c := *r
	c.EncryptedData = nil
	if withData {
		c.EncryptedData = append([]byte(nil), r.EncryptedData...)
	}
	return &c
}

func (r *recordRepository) Create(_ context.Context, record *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; ok {
		return repository.ErrDuplicate
	}
	r.records[record.ID] = copyRecord(record, true)
	return nil
}

func (r *recordRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRecord(rec, true), nil
}

func (r *recordRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.Record, 0)
	for _, rec := range r.records {
		if rec.PatientID == patientID && !rec.IsDeleted {
			records = append(records, copyRecord(rec, false))
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

func (r *recordRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.IsDeleted {
		return repository.ErrNotFound
	}
	rec.IsDeleted = true
	return nil
}

func (r *recordRepository) Count(_ context.Context, filter model.RecordFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, rec := range r.records {
		if filter.Matches(rec) {
			n++
		}
	}
	return n, nil
}
