// Package model defines the domain records shared by the offset calculator,
// compliance engine, and review scorer.
package model

// Client is an R&D entity under advisement.
type Client struct {
	ID                 string  `json:"id"`
	OrganisationID     string  `json:"organisation_id"`
	Name               string  `json:"name"`
	ABN                string  `json:"abn"`
	IsExemptControlled bool    `json:"is_exempt_controlled"`
	AggregatedTurnover float64 `json:"aggregated_turnover"`
}
