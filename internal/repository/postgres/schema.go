package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		phone TEXT,
		nmc_uid TEXT UNIQUE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verified_at TIMESTAMPTZ,
		verified_by UUID,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		profile_photo TEXT,
		gender TEXT,
		date_of_birth TEXT,
		blood_group TEXT,
		height TEXT,
		weight TEXT,
		address TEXT,
		emergency_contact TEXT,
		emergency_contact_name TEXT,
		emergency_contact_relation TEXT,
		allergies TEXT[],
		chronic_conditions TEXT[],
		current_medications TEXT[],
		is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email))`,
	`CREATE INDEX IF NOT EXISTS users_role_idx ON users (role, is_verified)`,
	`CREATE TABLE IF NOT EXISTS records (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL,
		uploaded_by UUID NOT NULL,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		encrypted_data BYTEA NOT NULL,
		encryption_method TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		uploaded_at TIMESTAMPTZ NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS records_patient_idx ON records (patient_id, uploaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS access_permissions (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL,
		doctor_id UUID NOT NULL,
		permission_level TEXT NOT NULL,
		granted_at TIMESTAMPTZ NOT NULL,
		UNIQUE (patient_id, doctor_id)
	)`,
	`CREATE INDEX IF NOT EXISTS access_doctor_idx ON access_permissions (doctor_id)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		details JSONB,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_user_idx ON audit_logs (user_id, timestamp DESC)`,
}

// migrate applies the schema in one transaction. Every statement is idempotent.
func migrate(ctx context.Context, base BaseRepository) error {
	return base.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
