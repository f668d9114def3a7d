package compliance

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rdti-cli/internal/db"
)

const checksMigration = `
CREATE TABLE IF NOT EXISTS compliance_checks (
	id             UUID PRIMARY KEY,
	application_id TEXT NOT NULL,
	check_type     TEXT NOT NULL,
	status         TEXT NOT NULL,
	message        TEXT NOT NULL DEFAULT '',
	details        JSONB,
	checked_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (application_id, check_type)
);
CREATE INDEX IF NOT EXISTS idx_compliance_checks_application
	ON compliance_checks (application_id);
`

// PostgresStore persists compliance checks in Postgres.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore wraps an existing pool. The caller owns the pool's
// lifetime unless Close is used.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the compliance_checks table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, checksMigration); err != nil {
		return eris.Wrap(err, "compliance: migrate checks table")
	}
	return nil
}

// ReplaceChecks swaps the stored checks for an application in a single
// transaction so readers never observe a partial run.
func (s *PostgresStore) ReplaceChecks(ctx context.Context, applicationID string, checks []Check) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "compliance: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM compliance_checks WHERE application_id = $1`,
		applicationID,
	); err != nil {
		return eris.Wrap(err, "compliance: delete prior checks")
	}

	for _, c := range checks {
		var details []byte
		if c.Details != nil {
			details, err = json.Marshal(c.Details)
			if err != nil {
				return eris.Wrapf(err, "compliance: marshal details for %s", c.Type)
			}
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO compliance_checks
				(id, application_id, check_type, status, message, details, checked_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, applicationID, string(c.Type), string(c.Status), c.Message, details, c.CheckedAt,
		); err != nil {
			return eris.Wrapf(err, "compliance: insert check %s", c.Type)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "compliance: commit replace")
	}
	return nil
}

// ListChecks returns the stored checks for an application in check
// type order.
func (s *PostgresStore) ListChecks(ctx context.Context, applicationID string) ([]Check, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, application_id, check_type, status, message, details, checked_at
		 FROM compliance_checks
		 WHERE application_id = $1
		 ORDER BY check_type`,
		applicationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: list checks")
	}
	defer rows.Close()

	var checks []Check
	for rows.Next() {
		var (
			c       Check
			details []byte
		)
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.Type, &c.Status, &c.Message, &details, &c.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "compliance: scan check")
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &c.Details); err != nil {
				return nil, eris.Wrapf(err, "compliance: decode details for %s", c.Type)
			}
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "compliance: iterate checks")
	}
	return checks, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
