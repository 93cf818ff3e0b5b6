package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{users: make(map[uuid.UUID]*model.User)}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Allergies = copyList(u.Allergies)
	c.ChronicConditions = copyList(u.ChronicConditions)
	c.CurrentMedications = copyList(u.CurrentMedications)
	return &c
}

func copyList(l model.StringList) model.StringList {
	if l == nil {
		return nil
	}
	return append(model.StringList{}, l...)
}

// conflicts reports whether u collides with a stored user other than itself.
func (r *userRepository) conflicts(u *model.User) bool {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return true
		}
		if u.NMCUID != nil && existing.NMCUID != nil && *existing.NMCUID == *u.NMCUID {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok || r.conflicts(user) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) ExistsByNMCUID(_ context.Context, nmcUID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.NMCUID != nil && *u.NMCUID == nmcUID {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.conflicts(user) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userRepository) List(_ context.Context, filter model.UserFilter) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0)
	for _, u := range r.users {
		if filter.Matches(u) {
			users = append(users, copyUser(u))
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Count(_ context.Context, filter model.UserFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, u := range r.users {
		if filter.Matches(u) {
			n++
		}
	}
	return n, nil
}
