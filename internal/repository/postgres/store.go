// Package postgres stores every repository in PostgreSQL through sqlx.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medicare-api/internal/repository"
)

type Store struct {
	base BaseRepository

	users   *userRepository
	records *recordRepository
	access  *accessRepository
	audit   *auditRepository
}

func NewStore(db *sqlx.DB) *Store {
	base := NewBaseRepository(db)
	return &Store{
		base:    base,
		users:   &userRepository{base},
		records: &recordRepository{base},
		access:  &accessRepository{base},
		audit:   &auditRepository{base},
	}
}

func (s *Store) Users() repository.UserRepository     { return s.users }
func (s *Store) Records() repository.RecordRepository { return s.records }
func (s *Store) Access() repository.AccessRepository  { return s.access }
func (s *Store) Audit() repository.AuditRepository    { return s.audit }

func (s *Store) Ping(ctx context.Context) error {
	return s.base.GetDB().PingContext(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	return migrate(ctx, s.base)
}

func (s *Store) Close(context.Context) error {
	return s.base.GetDB().Close()
}
