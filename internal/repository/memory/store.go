// Package memory keeps every repository in process memory. It backs tests
// and the "memory" database driver for local runs.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/jwalitptl/medicare-api/internal/repository"
)

var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.RWMutex
	closed bool

	users   *userRepository
	records *recordRepository
	access  *accessRepository
	audit   *auditRepository
}

func NewStore() *Store {
	return &Store{
		users:   newUserRepository(),
		records: newRecordRepository(),
		access:  newAccessRepository(),
		audit:   newAuditRepository(),
	}
}

func (s *Store) Users() repository.UserRepository     { return s.users }
func (s *Store) Records() repository.RecordRepository { return s.records }
func (s *Store) Access() repository.AccessRepository  { return s.access }
func (s *Store) Audit() repository.AuditRepository    { return s.audit }

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *Store) Migrate(context.Context) error { return nil }

// Close marks the store unreachable; data stays readable for inspection.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reopen undoes Close.
func (s *Store) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}
