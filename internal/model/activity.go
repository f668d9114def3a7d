package model

// ActivityKind is the ATO activity classification.
type ActivityKind string

const (
	ActivityCore       ActivityKind = "CORE"
	ActivitySupporting ActivityKind = "SUPPORTING"
)

// HEC is the Hypothesis-Experiment-Conclusion documentation block the ATO
// requires to justify a core R&D activity.
type HEC struct {
	Hypothesis  string `json:"hypothesis"`
	Experiment  string `json:"experiment"`
	Observation string `json:"observation"`
	Evaluation  string `json:"evaluation"`
	Conclusion  string `json:"conclusion"`
}

// Activity is a registered R&D activity within a project.
type Activity struct {
	ID                string       `json:"id"`
	ProjectID         string       `json:"project_id"`
	Name              string       `json:"name"`
	Kind              ActivityKind `json:"kind"`
	CoreActivityID    string       `json:"core_activity_id,omitempty"`
	IsOverseas        bool         `json:"is_overseas"`
	OverseasFindingID string       `json:"overseas_finding_id,omitempty"`
	HEC               HEC          `json:"hec"`
}
