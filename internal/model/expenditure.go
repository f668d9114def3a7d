package model

// ExpenditureCategory classifies an expenditure line for offset and
// threshold purposes.
type ExpenditureCategory string

const (
	CategoryCoreRD          ExpenditureCategory = "CORE_RD"
	CategorySupportingRD    ExpenditureCategory = "SUPPORTING_RD"
	CategoryRSP             ExpenditureCategory = "RSP"
	CategoryCRCContribution ExpenditureCategory = "CRC_CONTRIBUTION"
	CategoryAssociatePaid   ExpenditureCategory = "ASSOCIATE_PAID"
	CategoryOverseas        ExpenditureCategory = "OVERSEAS"
)

// Expenditure is a single expenditure line attributed to an application.
// Amount and GSTAmount are whole AUD.
type Expenditure struct {
	ID            string              `json:"id"`
	ApplicationID string              `json:"application_id"`
	ProjectID     string              `json:"project_id,omitempty"`
	Category      ExpenditureCategory `json:"category"`
	Amount        float64             `json:"amount"`
	GSTAmount     float64             `json:"gst_amount"`
	IsPaid        bool                `json:"is_paid"`
}
