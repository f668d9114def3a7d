package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteChecksMigration = `
CREATE TABLE IF NOT EXISTS compliance_checks (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL,
	check_type     TEXT NOT NULL,
	status         TEXT NOT NULL,
	message        TEXT NOT NULL DEFAULT '',
	details        TEXT,
	checked_at     TEXT NOT NULL,
	UNIQUE (application_id, check_type)
);
CREATE INDEX IF NOT EXISTS idx_compliance_checks_application
	ON compliance_checks (application_id);
`

// SQLiteStore persists compliance checks in a local SQLite file. It is
// the zero-infrastructure alternative to PostgresStore for single-user
// runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: open sqlite")
	}
	// modernc sqlite serialises writes; a single connection avoids
	// SQLITE_BUSY under concurrent replace calls.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "compliance: ping sqlite")
	}
	return &SQLiteStore{db: conn}, nil
}

// Migrate creates the compliance_checks table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteChecksMigration); err != nil {
		return eris.Wrap(err, "compliance: migrate sqlite checks table")
	}
	return nil
}

// ReplaceChecks swaps the stored checks for an application in a single
// transaction.
func (s *SQLiteStore) ReplaceChecks(ctx context.Context, applicationID string, checks []Check) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "compliance: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM compliance_checks WHERE application_id = ?`,
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO compliance_checks
				(id, application_id, check_type, status, message, details, checked_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, applicationID, string(c.Type), string(c.Status), c.Message,
			string(details), c.CheckedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return eris.Wrapf(err, "compliance: insert check %s", c.Type)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "compliance: commit replace")
	}
	return nil
}

// ListChecks returns the stored checks for an application in check
// type order.
func (s *SQLiteStore) ListChecks(ctx context.Context, applicationID string) ([]Check, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_id, check_type, status, message, details, checked_at
		 FROM compliance_checks
		 WHERE application_id = ?
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
			c         Check
			details   sql.NullString
			checkedAt string
		)
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.Type, &c.Status, &c.Message, &details, &checkedAt); err != nil {
			return nil, eris.Wrap(err, "compliance: scan check")
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &c.Details); err != nil {
				return nil, eris.Wrapf(err, "compliance: decode details for %s", c.Type)
			}
		}
		c.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt)
		if err != nil {
			return nil, eris.Wrap(err, "compliance: parse checked_at")
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "compliance: iterate checks")
	}
	return checks, nil
}

// Close closes the database file.
func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("compliance: close sqlite", zap.Error(err))
	}
}
