package compliance

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rdti-cli/internal/model"
)

// mockStore is an in-memory Store with error injection.
type mockStore struct {
	mu           sync.Mutex
	checks       map[string][]Check
	replaceCalls int
	replaceErr   error
	listErr      error
}

func newMockStore() *mockStore {
	return &mockStore{checks: make(map[string][]Check)}
}

func (m *mockStore) ReplaceChecks(_ context.Context, applicationID string, checks []Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.checks[applicationID] = append([]Check(nil), checks...)
	return nil
}

func (m *mockStore) ListChecks(_ context.Context, applicationID string) ([]Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.checks[applicationID], nil
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close()                        {}

// mockData serves fixtures keyed by ID.
type mockData struct {
	clients      map[string]model.Client
	applications map[string]model.Application
	expenditures map[string][]model.Expenditure
	activities   map[string][]model.Activity
}

func newMockData() *mockData {
	return &mockData{
		clients:      make(map[string]model.Client),
		applications: make(map[string]model.Application),
		expenditures: make(map[string][]model.Expenditure),
		activities:   make(map[string][]model.Activity),
	}
}

func (m *mockData) GetApplication(_ context.Context, id string) (*model.Application, error) {
	app, ok := m.applications[id]
	if !ok {
		return nil, eris.Errorf("application %s not found", id)
	}
	return &app, nil
}

func (m *mockData) GetClient(_ context.Context, id string) (*model.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, eris.Errorf("client %s not found", id)
	}
	return &c, nil
}

func (m *mockData) ListExpenditures(_ context.Context, applicationID string) ([]model.Expenditure, error) {
	return m.expenditures[applicationID], nil
}

func (m *mockData) ListActivities(_ context.Context, clientID string) ([]model.Activity, error) {
	return m.activities[clientID], nil
}

func (m *mockData) ListApplications(_ context.Context, organisationID, clientID string) ([]model.Application, error) {
	var out []model.Application
	for _, app := range m.applications {
		c, ok := m.clients[app.ClientID]
		if !ok || c.OrganisationID != organisationID {
			continue
		}
		if clientID != "" && app.ClientID != clientID {
			continue
		}
		out = append(out, app)
	}
	return out, nil
}
