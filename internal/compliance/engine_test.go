package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rdti-cli/internal/model"
)

var testNow = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func completeHEC() model.HEC {
	return model.HEC{
		Hypothesis:  "We hypothesised the new index layout would halve lookup latency.",
		Experiment:  "We benchmarked both layouts against production traces over two weeks.",
		Observation: "We measured a 47% median latency reduction across all trace sets.",
		Evaluation:  "We evaluated the results against our target and variance bounds.",
		Conclusion:  "We concluded the layout met the hypothesis within tolerance.",
	}
}

// healthyFixture returns a store, data source, and engine for an
// application that passes every check.
func healthyFixture() (*mockStore, *mockData, *Engine) {
	store := newMockStore()
	data := newMockData()

	data.clients["client-1"] = model.Client{
		ID:                 "client-1",
		OrganisationID:     "org-1",
		Name:               "Acme Fabrication Pty Ltd",
		AggregatedTurnover: 5_000_000,
	}
	data.applications["app-1"] = model.Application{
		ID:                     "app-1",
		ClientID:               "client-1",
		IncomeYearEnd:          time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:                 model.StatusRegistered,
		NotionalDeductions:     150_000,
		TotalExpenditure:       150_000,
		CachedExpenditureTotal: 150_000,
	}
	data.expenditures["app-1"] = []model.Expenditure{
		{ID: "exp-1", ApplicationID: "app-1", ProjectID: "proj-1", Category: model.CategoryCoreRD, Amount: 150_000, IsPaid: true},
	}
	data.activities["client-1"] = []model.Activity{
		{ID: "act-1", ProjectID: "proj-1", Name: "Index layout trials", Kind: model.ActivityCore, HEC: completeHEC()},
	}

	engine := NewEngine(store, data, 2)
	engine.now = func() time.Time { return testNow }
	return store, data, engine
}

func TestRunAllPass(t *testing.T) {
	store, _, engine := healthyFixture()

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)

	assert.Equal(t, "app-1", summary.ApplicationID)
	assert.Equal(t, 0, summary.RiskScore)
	assert.Equal(t, RiskLow, summary.RiskLevel)
	require.Len(t, summary.Checks, len(CheckTypes))
	for i, check := range summary.Checks {
		assert.Equal(t, CheckTypes[i], check.Type)
		assert.Equal(t, StatusPass, check.Status, "check %s", check.Type)
		assert.Equal(t, "app-1", check.ApplicationID)
		assert.Equal(t, testNow, check.CheckedAt)
	}
	assert.Equal(t, 1, store.replaceCalls)
}

func TestRunHighRisk(t *testing.T) {
	store, data, engine := healthyFixture()

	// Exempt-controlled client, missed deadline on an unregistered
	// draft, below threshold, unpaid associate amount, no activities,
	// stale cached total.
	data.clients["client-1"] = model.Client{
		ID:                 "client-1",
		OrganisationID:     "org-1",
		IsExemptControlled: true,
		AggregatedTurnover: 5_000_000,
	}
	data.applications["app-1"] = model.Application{
		ID:                     "app-1",
		ClientID:               "client-1",
		IncomeYearEnd:          time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:                 model.StatusDraft,
		NotionalDeductions:     5_000,
		CachedExpenditureTotal: 99_999,
	}
	data.expenditures["app-1"] = []model.Expenditure{
		{ID: "exp-1", ApplicationID: "app-1", ProjectID: "proj-1", Category: model.CategoryAssociatePaid, Amount: 5_000, IsPaid: false},
	}
	data.activities["client-1"] = nil

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)

	// WARNING entity (10) + FAIL deadline (30) + FAIL threshold (30) +
	// FAIL associate (30) + FAIL activities (30) + WARNING consistency (10).
	assert.Equal(t, 140, summary.RiskScore)
	assert.Equal(t, RiskHigh, summary.RiskLevel)

	byType := make(map[CheckType]Check)
	for _, c := range summary.Checks {
		byType[c.Type] = c
	}
	assert.Equal(t, StatusWarning, byType[CheckEntityEligibility].Status)
	assert.Equal(t, StatusFail, byType[CheckRegistrationDeadline].Status)
	assert.Equal(t, StatusFail, byType[CheckExpenditureThreshold].Status)
	assert.Equal(t, StatusFail, byType[CheckAssociatePayment].Status)
	assert.Equal(t, StatusFail, byType[CheckActivityEligibility].Status)
	assert.Equal(t, "No R&D activities registered", byType[CheckActivityEligibility].Message)
	assert.Equal(t, StatusWarning, byType[CheckExpenditureConsistency].Status)
	// Overseas and documentation have nothing to inspect and pass.
	assert.Equal(t, StatusPass, byType[CheckOverseasFinding].Status)
	assert.Equal(t, StatusPass, byType[CheckDocumentation].Status)

	assert.Equal(t, 1, store.replaceCalls)
}

func TestRunMediumRisk(t *testing.T) {
	_, data, engine := healthyFixture()

	data.expenditures["app-1"] = []model.Expenditure{
		{ID: "exp-1", ApplicationID: "app-1", ProjectID: "proj-1", Category: model.CategoryCoreRD, Amount: 150_000, IsPaid: true},
		{ID: "exp-2", ApplicationID: "app-1", ProjectID: "proj-1", Category: model.CategoryAssociatePaid, Amount: 0, IsPaid: false},
	}

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 30, summary.RiskScore)
	assert.Equal(t, RiskMedium, summary.RiskLevel)
}

func TestRunLodgedCountsAsRegistered(t *testing.T) {
	_, data, engine := healthyFixture()

	app := data.applications["app-1"]
	app.IncomeYearEnd = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	app.Status = model.StatusLodged
	data.applications["app-1"] = app

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	for _, c := range summary.Checks {
		if c.Type == CheckRegistrationDeadline {
			assert.Equal(t, StatusPass, c.Status)
		}
	}
}

func TestRunSupportingActivityUnlinked(t *testing.T) {
	_, data, engine := healthyFixture()

	data.activities["client-1"] = append(data.activities["client-1"], model.Activity{
		ID:        "act-2",
		ProjectID: "proj-1",
		Kind:      model.ActivitySupporting,
		HEC:       completeHEC(),
	})

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	for _, c := range summary.Checks {
		if c.Type == CheckActivityEligibility {
			assert.Equal(t, StatusWarning, c.Status)
			assert.Contains(t, c.Message, "not linked to a core activity")
		}
	}
}

func TestRunOverseasWithoutFinding(t *testing.T) {
	_, data, engine := healthyFixture()

	acts := data.activities["client-1"]
	acts[0].IsOverseas = true
	data.activities["client-1"] = acts

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	for _, c := range summary.Checks {
		if c.Type == CheckOverseasFinding {
			assert.Equal(t, StatusWarning, c.Status)
		}
	}
}

func TestRunIncompleteDocumentation(t *testing.T) {
	_, data, engine := healthyFixture()

	acts := data.activities["client-1"]
	acts[0].HEC.Conclusion = "TBD"
	data.activities["client-1"] = acts

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	for _, c := range summary.Checks {
		if c.Type == CheckDocumentation {
			assert.Equal(t, StatusWarning, c.Status)
		}
	}
	assert.Equal(t, 10, summary.RiskScore)
}

func TestRunRSPExemptsThreshold(t *testing.T) {
	_, data, engine := healthyFixture()

	app := data.applications["app-1"]
	app.NotionalDeductions = 5_000
	app.CachedExpenditureTotal = 5_000
	data.applications["app-1"] = app
	data.expenditures["app-1"] = []model.Expenditure{
		{ID: "exp-1", ApplicationID: "app-1", ProjectID: "proj-1", Category: model.CategoryRSP, Amount: 5_000, IsPaid: true},
	}

	summary, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	for _, c := range summary.Checks {
		if c.Type == CheckExpenditureThreshold {
			assert.Equal(t, StatusPass, c.Status, c.Message)
		}
	}
}

func TestRunReplaceIsIdempotent(t *testing.T) {
	store, _, engine := healthyFixture()

	_, err := engine.Run(context.Background(), "app-1")
	require.NoError(t, err)
	_, err = engine.Run(context.Background(), "app-1")
	require.NoError(t, err)

	checks, err := store.ListChecks(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Len(t, checks, len(CheckTypes))
	assert.Equal(t, 2, store.replaceCalls)
}

func TestRunStoreFailureIsHard(t *testing.T) {
	store, _, engine := healthyFixture()
	store.replaceErr = eris.New("connection reset")

	summary, err := engine.Run(context.Background(), "app-1")
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "persist checks")
}

func TestRunUnknownApplication(t *testing.T) {
	_, _, engine := healthyFixture()

	_, err := engine.Run(context.Background(), "app-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app-missing")
}

func TestSummariseBands(t *testing.T) {
	tests := []struct {
		name      string
		fails     int
		warnings  int
		wantScore int
		wantLevel string
	}{
		{"all pass", 0, 0, 0, RiskLow},
		{"two warnings", 0, 2, 20, RiskLow},
		{"one fail", 1, 0, 30, RiskMedium},
		{"fail and warnings", 1, 2, 50, RiskMedium},
		{"two fails", 2, 0, 60, RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checks []Check
			for i := 0; i < tt.fails; i++ {
				checks = append(checks, Check{Status: StatusFail})
			}
			for i := 0; i < tt.warnings; i++ {
				checks = append(checks, Check{Status: StatusWarning})
			}
			summary := summarise("app-1", checks)
			assert.Equal(t, tt.wantScore, summary.RiskScore)
			assert.Equal(t, tt.wantLevel, summary.RiskLevel)
		})
	}
}
