package model

import "time"

// ApplicationStatus tracks an income-year application through its lifecycle.
type ApplicationStatus string

const (
	StatusDraft      ApplicationStatus = "DRAFT"
	StatusReady      ApplicationStatus = "READY"
	StatusRegistered ApplicationStatus = "REGISTERED"
	StatusLodged     ApplicationStatus = "LODGED"
)

// Application is one client's R&D Tax Incentive application for a single
// income year. Monetary fields are whole AUD.
type Application struct {
	ID                     string            `json:"id"`
	ClientID               string            `json:"client_id"`
	IncomeYearEnd          time.Time         `json:"income_year_end"`
	Status                 ApplicationStatus `json:"status"`
	NotionalDeductions     float64           `json:"notional_deductions"`
	TotalExpenditure       float64           `json:"total_expenditure"`
	CachedExpenditureTotal float64           `json:"cached_expenditure_total"`
}
