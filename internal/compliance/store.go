package compliance

import (
	"context"

	"github.com/sells-group/rdti-cli/internal/model"
)

// Store persists compliance check results. ReplaceChecks must be atomic:
// a reader never observes a partially replaced check set.
type Store interface {
	ReplaceChecks(ctx context.Context, applicationID string, checks []Check) error
	ListChecks(ctx context.Context, applicationID string) ([]Check, error)
	Migrate(ctx context.Context) error
	Close()
}

// DataSource loads the domain records the checks evaluate. The case
// management schema behind it is owned elsewhere; the engine only reads.
type DataSource interface {
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListExpenditures(ctx context.Context, applicationID string) ([]model.Expenditure, error)
	// ListActivities returns all activities across the client's projects.
	ListActivities(ctx context.Context, clientID string) ([]model.Activity, error)
	ListApplications(ctx context.Context, organisationID, clientID string) ([]model.Application, error)
}
