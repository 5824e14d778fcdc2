package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xavierca1/lead-crm/internal/entity"
)

func schemaStatements() []string {
	stages := make([]string, 0, len(entity.Stages))
	for _, s := range entity.Stages {
		stages = append(stages, "'"+string(s)+"'")
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id          UUID PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL,
			company     TEXT,
			stage       TEXT NOT NULL DEFAULT 'new',
			notes       TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT leads_stage_check CHECK (stage IN (` + strings.Join(stages, ", ") + `))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS leads_owner_email_key ON leads (owner_id, email)`,
		`CREATE INDEX IF NOT EXISTS leads_owner_created_idx ON leads (owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS leads_owner_stage_idx ON leads (owner_id, stage)`,
	}
}

// EnsureSchema creates the leads table and its indexes. The session table belongs to
// the auth provider and is not managed here.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
