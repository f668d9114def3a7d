// Package review blends the deterministic rule scorer with a generative-AI
// evaluation into a single submission success-likelihood score. The AI call
// is best-effort: any failure degrades to rule-only scoring, never to an
// error.
package review

import (
	"github.com/sells-group/rdti-cli/internal/model"
	"github.com/sells-group/rdti-cli/internal/rules"
)

// Risk level bands over the overall score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ReviewResult carries the generated content sections to be scored. Every
// section is optional; absent sections are skipped, not penalized.
type ReviewResult struct {
	HEC                     *model.HEC `json:"hec,omitempty"`
	UncertaintyStatements   []string   `json:"uncertainty_statements,omitempty"`
	ClassificationReasoning string     `json:"classification_reasoning,omitempty"`
	DominantPurpose         string     `json:"dominant_purpose,omitempty"`
}

// Breakdown lists the deduplicated, ranked factors behind a score.
type Breakdown struct {
	RiskFactors     []rules.RiskFactor     `json:"risk_factors"`
	StrengthFactors []rules.StrengthFactor `json:"strength_factors"`
}

// SuccessScore is the blended rule/AI assessment of a review result.
type SuccessScore struct {
	OverallScore      int       `json:"overall_score"`
	RiskLevel         string    `json:"risk_level"`
	Breakdown         Breakdown `json:"breakdown"`
	OverallAssessment string    `json:"overall_assessment"`
}

// aiEvaluation is the structured response requested from the model.
type aiEvaluation struct {
	AIScore           int                    `json:"aiScore"`
	RiskFactors       []rules.RiskFactor     `json:"riskFactors"`
	StrengthFactors   []rules.StrengthFactor `json:"strengthFactors"`
	OverallAssessment string                 `json:"overallAssessment"`
}
