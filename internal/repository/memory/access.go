package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
)

type grantKey struct {
	patientID uuid.UUID
	doctorID  uuid.UUID
}

type accessRepository struct {
	mu     sync.RWMutex
	grants map[grantKey]*model.AccessPermission
}

func newAccessRepository() *accessRepository {
	return &accessRepository{grants: make(map[grantKey]*model.AccessPermission)}
}

func (r *accessRepository) Create(_ context.Context, perm *model.AccessPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := grantKey{perm.PatientID, perm.DoctorID}
	if _, ok := r.grants[key]; ok {
		return repository.ErrDuplicate
	}
	c := *perm
	c.Doctor, c.Patient = nil, nil
	r.grants[key] = &c
	return nil
}

func (r *accessRepository) Get(_ context.Context, patientID, doctorID uuid.UUID) (*model.AccessPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perm, ok := r.grants[grantKey{patientID, doctorID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *perm
	return &c, nil
}

func (r *accessRepository) Delete(_ context.Context, patientID, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := grantKey{patientID, doctorID}
	if _, ok := r.grants[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.grants, key)
	return nil
}

func (r *accessRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(func(p *model.AccessPermission) bool { return p.PatientID == patientID }), nil
}

func (r *accessRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(func(p *model.AccessPermission) bool { return p.DoctorID == doctorID }), nil
}

func (r *accessRepository) list(match func(*model.AccessPermission) bool) []*model.AccessPermission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perms := make([]*model.AccessPermission, 0)
	for _, p := range r.grants {
		if match(p) {
			c := *p
			perms = append(perms, &c)
		}
	}
	sort.SliceStable(perms, func(i, j int) bool {
		return perms[i].GrantedAt.After(perms[j].GrantedAt)
	})
	return perms
}
