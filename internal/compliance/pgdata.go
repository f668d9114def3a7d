package compliance

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rdti-cli/internal/db"
	"github.com/sells-group/rdti-cli/internal/model"
)

const domainMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id                   TEXT PRIMARY KEY,
	organisation_id      TEXT NOT NULL,
	name                 TEXT NOT NULL,
	abn                  TEXT NOT NULL DEFAULT '',
	is_exempt_controlled BOOLEAN NOT NULL DEFAULT FALSE,
	aggregated_turnover  DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS applications (
	id                       TEXT PRIMARY KEY,
	client_id                TEXT NOT NULL REFERENCES clients (id),
	income_year_end          TIMESTAMPTZ NOT NULL,
	status                   TEXT NOT NULL DEFAULT 'DRAFT',
	notional_deductions      DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_expenditure        DOUBLE PRECISION NOT NULL DEFAULT 0,
	cached_expenditure_total DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS projects (
	id        TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients (id),
	name      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS activities (
	id                  TEXT PRIMARY KEY,
	project_id          TEXT NOT NULL REFERENCES projects (id),
	name                TEXT NOT NULL DEFAULT '',
	kind                TEXT NOT NULL,
	core_activity_id    TEXT NOT NULL DEFAULT '',
	is_overseas         BOOLEAN NOT NULL DEFAULT FALSE,
	overseas_finding_id TEXT NOT NULL DEFAULT '',
	hypothesis          TEXT NOT NULL DEFAULT '',
	experiment          TEXT NOT NULL DEFAULT '',
	observation         TEXT NOT NULL DEFAULT '',
	evaluation          TEXT NOT NULL DEFAULT '',
	conclusion          TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS expenditures (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications (id),
	project_id     TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	amount         DOUBLE PRECISION NOT NULL DEFAULT 0,
	gst_amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_paid        BOOLEAN NOT NULL DEFAULT FALSE
);
`

// PostgresData reads the case management schema. The engine only ever
// reads these tables; writes belong to the upstream case system.
type PostgresData struct {
	pool db.Pool
}

// NewPostgresData wraps an existing pool.
func NewPostgresData(pool db.Pool) *PostgresData {
	return &PostgresData{pool: pool}
}

// Migrate creates the domain tables if they do not exist. Intended for
// local development databases; production schemas are managed upstream.
func (d *PostgresData) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, domainMigration); err != nil {
		return eris.Wrap(err, "compliance: migrate domain tables")
	}
	return nil
}

// GetApplication loads one application by ID.
func (d *PostgresData) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := d.pool.QueryRow(ctx,
		`SELECT id, client_id, income_year_end, status,
		        notional_deductions, total_expenditure, cached_expenditure_total
		 FROM applications WHERE id = $1`,
		id,
	).Scan(&app.ID, &app.ClientID, &app.IncomeYearEnd, &app.Status,
		&app.NotionalDeductions, &app.TotalExpenditure, &app.CachedExpenditureTotal)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(err, "compliance: application %s not found", id)
		}
		return nil, eris.Wrap(err, "compliance: get application")
	}
	return &app, nil
}

// GetClient loads one client by ID.
func (d *PostgresData) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := d.pool.QueryRow(ctx,
		`SELECT id, organisation_id, name, abn, is_exempt_controlled, aggregated_turnover
		 FROM clients WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.OrganisationID, &c.Name, &c.ABN, &c.IsExemptControlled, &c.AggregatedTurnover)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(err, "compliance: client %s not found", id)
		}
		return nil, eris.Wrap(err, "compliance: get client")
	}
	return &c, nil
}

// ListExpenditures returns the expenditure lines for an application.
func (d *PostgresData) ListExpenditures(ctx context.Context, applicationID string) ([]model.Expenditure, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, application_id, project_id, category, amount, gst_amount, is_paid
		 FROM expenditures WHERE application_id = $1 ORDER BY id`,
		applicationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: list expenditures")
	}
	defer rows.Close()

	var out []model.Expenditure
	for rows.Next() {
		var e model.Expenditure
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.ProjectID, &e.Category, &e.Amount, &e.GSTAmount, &e.IsPaid); err != nil {
			return nil, eris.Wrap(err, "compliance: scan expenditure")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "compliance: iterate expenditures")
	}
	return out, nil
}

// ListActivities returns all activities across the client's projects.
func (d *PostgresData) ListActivities(ctx context.Context, clientID string) ([]model.Activity, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT a.id, a.project_id, a.name, a.kind, a.core_activity_id,
		        a.is_overseas, a.overseas_finding_id,
		        a.hypothesis, a.experiment, a.observation, a.evaluation, a.conclusion
		 FROM activities a
		 JOIN projects p ON p.id = a.project_id
		 WHERE p.client_id = $1
		 ORDER BY a.id`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: list activities")
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Kind, &a.CoreActivityID,
			&a.IsOverseas, &a.OverseasFindingID,
			&a.HEC.Hypothesis, &a.HEC.Experiment, &a.HEC.Observation, &a.HEC.Evaluation, &a.HEC.Conclusion); err != nil {
			return nil, eris.Wrap(err, "compliance: scan activity")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "compliance: iterate activities")
	}
	return out, nil
}

// ListApplications returns every application under the organisation,
// optionally narrowed to one client.
func (d *PostgresData) ListApplications(ctx context.Context, organisationID, clientID string) ([]model.Application, error) {
	query := `SELECT a.id, a.client_id, a.income_year_end, a.status,
	                 a.notional_deductions, a.total_expenditure, a.cached_expenditure_total
	          FROM applications a
	          JOIN clients c ON c.id = a.client_id
	          WHERE c.organisation_id = $1`
	args := []any{organisationID}
	if clientID != "" {
		query += ` AND a.client_id = $2`
		args = append(args, clientID)
	}
	query += ` ORDER BY a.id`

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: list applications")
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		var app model.Application
		if err := rows.Scan(&app.ID, &app.ClientID, &app.IncomeYearEnd, &app.Status,
			&app.NotionalDeductions, &app.TotalExpenditure, &app.CachedExpenditureTotal); err != nil {
			return nil, eris.Wrap(err, "compliance: scan application")
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "compliance: iterate applications")
	}
	return out, nil
}
