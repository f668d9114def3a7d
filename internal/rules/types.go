// Package rules implements the deterministic documentation scorer: a
// pattern-matching pass over static risk/strength rule tables plus
// field-level H-E-C quality checks. Rules are data, not code, so tables can
// be tuned and tested independently of the scoring algorithm.
package rules

// ContentType identifies which generated-content section a rule applies to.
type ContentType string

const (
	ContentHEC             ContentType = "hec"
	ContentUncertainty     ContentType = "uncertainty"
	ContentClassification  ContentType = "classification"
	ContentDominantPurpose ContentType = "dominant_purpose"
)

// RiskRule flags weak or disqualifying language. Impact is negative; a zero
// impact marks an informational rule that is surfaced elsewhere and never
// contributes to the score.
type RiskRule struct {
	ID          string        `yaml:"id"`
	Category    string        `yaml:"category"`
	Description string        `yaml:"description"`
	Patterns    []string      `yaml:"patterns,omitempty"`
	Regex       []string      `yaml:"regex,omitempty"`
	Impact      int           `yaml:"impact"`
	Suggestion  string        `yaml:"suggestion,omitempty"`
	AppliesTo   []ContentType `yaml:"applies_to"`
}

// StrengthRule rewards language indicating genuine systematic R&D.
// Impact is positive.
type StrengthRule struct {
	ID          string        `yaml:"id"`
	Category    string        `yaml:"category"`
	Description string        `yaml:"description"`
	Patterns    []string      `yaml:"patterns,omitempty"`
	Regex       []string      `yaml:"regex,omitempty"`
	Impact      int           `yaml:"impact"`
	AppliesTo   []ContentType `yaml:"applies_to"`
}

// CheckKind is the kind of a field-level H-E-C quality check.
type CheckKind string

const (
	CheckMinLength          CheckKind = "minLength"
	CheckMaxLength          CheckKind = "maxLength"
	CheckContainsPattern    CheckKind = "containsPattern"
	CheckNotContainsPattern CheckKind = "notContainsPattern"
	CheckPastTense          CheckKind = "pastTense"
)

// HECQualityCheck targets one field of the H-E-C block with one check kind.
// Threshold applies to the length kinds; Patterns to the pattern kinds.
type HECQualityCheck struct {
	ID         string    `yaml:"id"`
	Field      string    `yaml:"field"`
	Kind       CheckKind `yaml:"kind"`
	Threshold  int       `yaml:"threshold,omitempty"`
	Patterns   []string  `yaml:"patterns,omitempty"`
	FailImpact int       `yaml:"fail_impact"`
	Suggestion string    `yaml:"suggestion"`
}

// Table is a complete, versioned rule set.
type Table struct {
	Version   string            `yaml:"version"`
	Risks     []RiskRule        `yaml:"risks"`
	Strengths []StrengthRule    `yaml:"strengths"`
	HECChecks []HECQualityCheck `yaml:"hec_checks"`
}

// RiskFactor is a matched risk, impact negative.
type RiskFactor struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Impact      int    `json:"impact"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// StrengthFactor is a matched strength, impact positive.
type StrengthFactor struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Impact      int    `json:"impact"`
}

// ContentScore is the deterministic score for one content section.
type ContentScore struct {
	RuleScore int              `json:"rule_score"`
	Risks     []RiskFactor     `json:"risks,omitempty"`
	Strengths []StrengthFactor `json:"strengths,omitempty"`
}
