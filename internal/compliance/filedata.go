package compliance

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rdti-cli/internal/model"
)

// caseFile is the on-disk shape FileData loads. Projects carry their
// activities inline so a case file reads the way advisors think about
// an engagement.
type caseFile struct {
	Clients      []model.Client      `json:"clients"`
	Applications []model.Application `json:"applications"`
	Expenditures []model.Expenditure `json:"expenditures"`
	Projects     []struct {
		ID         string           `json:"id"`
		ClientID   string           `json:"client_id"`
		Activities []model.Activity `json:"activities"`
	} `json:"projects"`
}

// FileData is a DataSource backed by a JSON case file. It backs the
// sqlite driver and lets checks run against an exported case without a
// database.
type FileData struct {
	clients          map[string]model.Client
	applications     map[string]model.Application
	expenditures     map[string][]model.Expenditure
	activitiesByClnt map[string][]model.Activity
	appsByClient     map[string][]model.Application
	orgByClient      map[string]string
}

// LoadFileData reads and indexes a JSON case file.
func LoadFileData(path string) (*FileData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "compliance: read case file")
	}
	var cf caseFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, eris.Wrap(err, "compliance: decode case file")
	}

	fd := &FileData{
		clients:          make(map[string]model.Client, len(cf.Clients)),
		applications:     make(map[string]model.Application, len(cf.Applications)),
		expenditures:     make(map[string][]model.Expenditure),
		activitiesByClnt: make(map[string][]model.Activity),
		appsByClient:     make(map[string][]model.Application),
		orgByClient:      make(map[string]string, len(cf.Clients)),
	}
	for _, c := range cf.Clients {
		fd.clients[c.ID] = c
		fd.orgByClient[c.ID] = c.OrganisationID
	}
	for _, a := range cf.Applications {
		fd.applications[a.ID] = a
		fd.appsByClient[a.ClientID] = append(fd.appsByClient[a.ClientID], a)
	}
	for _, e := range cf.Expenditures {
		fd.expenditures[e.ApplicationID] = append(fd.expenditures[e.ApplicationID], e)
	}
	for _, p := range cf.Projects {
		for _, act := range p.Activities {
			if act.ProjectID == "" {
				act.ProjectID = p.ID
			}
			fd.activitiesByClnt[p.ClientID] = append(fd.activitiesByClnt[p.ClientID], act)
		}
	}
	return fd, nil
}

func (d *FileData) GetApplication(_ context.Context, id string) (*model.Application, error) {
	app, ok := d.applications[id]
	if !ok {
		return nil, eris.Errorf("compliance: application %s not found", id)
	}
	return &app, nil
}

func (d *FileData) GetClient(_ context.Context, id string) (*model.Client, error) {
	c, ok := d.clients[id]
	if !ok {
		return nil, eris.Errorf("compliance: client %s not found", id)
	}
	return &c, nil
}

func (d *FileData) ListExpenditures(_ context.Context, applicationID string) ([]model.Expenditure, error) {
	return d.expenditures[applicationID], nil
}

func (d *FileData) ListActivities(_ context.Context, clientID string) ([]model.Activity, error) {
	return d.activitiesByClnt[clientID], nil
}

func (d *FileData) ListApplications(_ context.Context, organisationID, clientID string) ([]model.Application, error) {
	var out []model.Application
	for id, apps := range d.appsByClient {
		if clientID != "" && id != clientID {
			continue
		}
		if organisationID != "" && d.orgByClient[id] != organisationID {
			continue
		}
		out = append(out, apps...)
	}
	return out, nil
}
