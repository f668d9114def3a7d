package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rdti-cli/internal/model"
)

// orgFixture builds two clients with one application each. client-1's
// application passes everything; client-2's has no activities.
func orgFixture() (*mockStore, *mockData, *Engine) {
	store, data, engine := healthyFixture()

	data.clients["client-2"] = model.Client{
		ID:                 "client-2",
		OrganisationID:     "org-1",
		Name:               "Beta Systems Pty Ltd",
		AggregatedTurnover: 2_000_000,
	}
	data.applications["app-2"] = model.Application{
		ID:                 "app-2",
		ClientID:           "client-2",
		IncomeYearEnd:      time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:             model.StatusRegistered,
		NotionalDeductions: 80_000,
	}
	data.expenditures["app-2"] = []model.Expenditure{
		{ID: "exp-2", ApplicationID: "app-2", ProjectID: "proj-2", Category: model.CategoryCoreRD, Amount: 80_000, IsPaid: true},
	}
	// No activities registered for client-2.

	return store, data, engine
}

func categoryFor(t *testing.T, ov *Overview, ct CheckType) CategoryOverview {
	t.Helper()
	for _, cat := range ov.Categories {
		if cat.Type == ct {
			return cat
		}
	}
	t.Fatalf("category %s not found", ct)
	return CategoryOverview{}
}

func TestOverviewLazilyRunsMissingChecks(t *testing.T) {
	store, _, engine := orgFixture()

	ov, err := engine.Overview(context.Background(), "org-1", "")
	require.NoError(t, err)

	assert.Equal(t, "org-1", ov.OrganisationID)
	assert.Equal(t, 2, ov.Applications)
	require.Len(t, ov.Categories, len(CheckTypes))

	// Both applications had no stored checks, so both ran lazily.
	assert.Equal(t, 2, store.replaceCalls)

	activityCat := categoryFor(t, ov, CheckActivityEligibility)
	assert.Equal(t, 1, activityCat.PassCount)
	assert.Equal(t, 1, activityCat.FailCount)
	assert.Equal(t, StatusPass, activityCat.WorstByClient["client-1"])
	assert.Equal(t, StatusFail, activityCat.WorstByClient["client-2"])

	entityCat := categoryFor(t, ov, CheckEntityEligibility)
	assert.Equal(t, 2, entityCat.PassCount)
	assert.Equal(t, 0, entityCat.FailCount)
}

func TestOverviewUsesStoredChecks(t *testing.T) {
	store, _, engine := orgFixture()

	// Pre-run both applications; the overview must not rerun them.
	_, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	_, err = engine.Run(context.Background(), "app-2")
	require.NoError(t, err)
	require.Equal(t, 2, store.replaceCalls)

	_, err = engine.Overview(context.Background(), "org-1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, store.replaceCalls)
}

func TestOverviewClientScoped(t *testing.T) {
	_, _, engine := orgFixture()

	ov, err := engine.Overview(context.Background(), "org-1", "client-2")
	require.NoError(t, err)

	assert.Equal(t, "client-2", ov.ClientID)
	assert.Equal(t, 1, ov.Applications)

	activityCat := categoryFor(t, ov, CheckActivityEligibility)
	assert.Equal(t, 1, activityCat.FailCount)
	_, seen := activityCat.WorstByClient["client-1"]
	assert.False(t, seen)
}

func TestOverviewWorstStatusPerClient(t *testing.T) {
	store, data, engine := orgFixture()

	// Second application for client-2 that passes activity eligibility.
	data.applications["app-3"] = model.Application{
		ID:                 "app-3",
		ClientID:           "client-2",
		IncomeYearEnd:      time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:             model.StatusRegistered,
		NotionalDeductions: 90_000,
	}
	data.expenditures["app-3"] = []model.Expenditure{
		{ID: "exp-3", ApplicationID: "app-3", ProjectID: "proj-2", Category: model.CategoryCoreRD, Amount: 90_000, IsPaid: true},
	}
	// Seed stored checks so only the lazy path differs per application.
	require.NoError(t, store.ReplaceChecks(context.Background(), "app-3", []Check{
		{ApplicationID: "app-3", Type: CheckActivityEligibility, Status: StatusPass},
	}))

	ov, err := engine.Overview(context.Background(), "org-1", "")
	require.NoError(t, err)

	activityCat := categoryFor(t, ov, CheckActivityEligibility)
	// A pass on one application never masks a fail on another.
	assert.Equal(t, StatusFail, activityCat.WorstByClient["client-2"])
}

func TestOverviewNoApplications(t *testing.T) {
	store, _, engine := orgFixture()

	ov, err := engine.Overview(context.Background(), "org-other", "")
	require.NoError(t, err)

	assert.Equal(t, 0, ov.Applications)
	require.Len(t, ov.Categories, len(CheckTypes))
	for _, cat := range ov.Categories {
		assert.Zero(t, cat.PassCount)
		assert.Zero(t, cat.WarningCount)
		assert.Zero(t, cat.FailCount)
		assert.Empty(t, cat.WorstByClient)
	}
	assert.Equal(t, 0, store.replaceCalls)
}
