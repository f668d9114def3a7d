// Package compliance evaluates the per-application ATO compliance check
// battery, persists check results, and aggregates them into an
// organisation-wide risk overview.
package compliance

import "time"

// CheckType enumerates the fixed compliance check battery. Every run
// evaluates all eight.
type CheckType string

const (
	CheckEntityEligibility      CheckType = "ENTITY_ELIGIBILITY"
	CheckRegistrationDeadline   CheckType = "REGISTRATION_DEADLINE"
	CheckExpenditureThreshold   CheckType = "EXPENDITURE_THRESHOLD"
	CheckAssociatePayment       CheckType = "ASSOCIATE_PAYMENT"
	CheckOverseasFinding        CheckType = "OVERSEAS_FINDING"
	CheckDocumentation          CheckType = "DOCUMENTATION"
	CheckActivityEligibility    CheckType = "ACTIVITY_ELIGIBILITY"
	CheckExpenditureConsistency CheckType = "EXPENDITURE_CONSISTENCY"
)

// CheckTypes lists all check types in evaluation order.
var CheckTypes = []CheckType{
	CheckEntityEligibility,
	CheckRegistrationDeadline,
	CheckExpenditureThreshold,
	CheckAssociatePayment,
	CheckOverseasFinding,
	CheckDocumentation,
	CheckActivityEligibility,
	CheckExpenditureConsistency,
}

// categoryLabels maps check types to their dashboard labels.
var categoryLabels = map[CheckType]string{
	CheckEntityEligibility:      "Entity eligibility",
	CheckRegistrationDeadline:   "Registration deadline",
	CheckExpenditureThreshold:   "Expenditure threshold",
	CheckAssociatePayment:       "Associate payments",
	CheckOverseasFinding:        "Overseas findings",
	CheckDocumentation:          "Documentation completeness",
	CheckActivityEligibility:    "Activity eligibility",
	CheckExpenditureConsistency: "Expenditure consistency",
}

// Status is the outcome of a single check.
type Status string

const (
	StatusPass          Status = "PASS"
	StatusWarning       Status = "WARNING"
	StatusFail          Status = "FAIL"
	StatusNotApplicable Status = "NOT_APPLICABLE"
)

// statusRank orders statuses from worst to best for overview aggregation.
var statusRank = map[Status]int{
	StatusFail:          3,
	StatusWarning:       2,
	StatusPass:          1,
	StatusNotApplicable: 0,
}

// Worse reports whether s ranks strictly worse than other.
func (s Status) Worse(other Status) bool {
	return statusRank[s] > statusRank[other]
}

// Check is one evaluated check for an application. Rows are fully replaced
// on every run, so IDs are not stable across runs.
type Check struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"application_id"`
	Type          CheckType      `json:"check_type"`
	Status        Status         `json:"status"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	CheckedAt     time.Time      `json:"checked_at"`
}

// Risk scoring weights and level bands.
const (
	failWeight    = 30
	warningWeight = 10

	highRiskThreshold   = 60
	mediumRiskThreshold = 30
)

// Risk levels for an application's aggregate check outcome.
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

// Summary is the outcome of one compliance run.
type Summary struct {
	ApplicationID string  `json:"application_id"`
	Checks        []Check `json:"checks"`
	RiskScore     int     `json:"risk_score"`
	RiskLevel     string  `json:"risk_level"`
}

// CategoryOverview aggregates one check category across an organisation:
// counts per status plus the worst status seen for each client.
type CategoryOverview struct {
	Type          CheckType         `json:"check_type"`
	Label         string            `json:"label"`
	PassCount     int               `json:"pass_count"`
	WarningCount  int               `json:"warning_count"`
	FailCount     int               `json:"fail_count"`
	WorstByClient map[string]Status `json:"worst_by_client"`
}

// Overview is the derived organisation-wide compliance picture. It is
// recomputed on read and never persisted.
type Overview struct {
	OrganisationID string             `json:"organisation_id"`
	ClientID       string             `json:"client_id,omitempty"`
	Applications   int                `json:"applications"`
	Categories     []CategoryOverview `json:"categories"`
}
