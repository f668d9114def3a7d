package review

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rdti-cli/internal/rules"
	"github.com/sells-group/rdti-cli/pkg/anthropic"
)

const (
	neutralScore = 70
	dedupPrefix  = 50

	fallbackAssessment = "AI evaluation unavailable; assessment based on rule checks only."
)

const systemPrompt = `You are an experienced R&D Tax Incentive reviewer assessing draft ATO submission content.
Evaluate the supplied sections for eligibility risk, documentation quality, and alignment with the
Hypothesis-Experiment-Conclusion framework. Respond with a single JSON object:
{"aiScore": <0-100>, "riskFactors": [{"category": "...", "description": "...", "impact": <negative int>, "suggestion": "..."}],
"strengthFactors": [{"category": "...", "description": "...", "impact": <positive int>}],
"overallAssessment": "<two or three sentences>"}`

// Config tunes the blended scorer.
type Config struct {
	Model      string
	MaxTokens  int64
	Timeout    time.Duration
	RuleWeight float64
	AIWeight   float64
	// CallsPerMinute bounds AI usage across concurrent reviews; 0 disables
	// the limiter.
	CallsPerMinute int
}

// DefaultConfig returns the production scoring configuration: 40% rule
// score, 60% AI score, bounded 30s AI wait.
func DefaultConfig(model string) Config {
	return Config{
		Model:          model,
		MaxTokens:      2048,
		Timeout:        30 * time.Second,
		RuleWeight:     0.4,
		AIWeight:       0.6,
		CallsPerMinute: 20,
	}
}

// Scorer orchestrates rule scoring across content sections and blends in a
// holistic AI evaluation. Dependencies are explicit; a nil AI client means
// rule-only scoring.
type Scorer struct {
	rules   *rules.Engine
	ai      anthropic.Client
	cfg     Config
	limiter *rate.Limiter
}

// NewScorer builds a Scorer from its dependencies.
func NewScorer(engine *rules.Engine, ai anthropic.Client, cfg Config) *Scorer {
	var limiter *rate.Limiter
	if cfg.CallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.CallsPerMinute)), 1)
	}
	return &Scorer{rules: engine, ai: ai, cfg: cfg, limiter: limiter}
}

// Score computes the blended success score for a review result. It never
// returns an error: AI failures of any kind fall back to a neutral AI score
// and a standard assessment string.
func (s *Scorer) Score(ctx context.Context, result ReviewResult) SuccessScore {
	var (
		sectionScores []int
		risks         []rules.RiskFactor
		strengths     []rules.StrengthFactor
	)

	collect := func(cs rules.ContentScore) {
		sectionScores = append(sectionScores, cs.RuleScore)
		risks = append(risks, cs.Risks...)
		strengths = append(strengths, cs.Strengths...)
	}

	if result.HEC != nil {
		collect(s.rules.ScoreHEC(*result.HEC))
	}
	for _, statement := range result.UncertaintyStatements {
		collect(s.rules.ScoreContent(statement, rules.ContentUncertainty))
	}
	if result.ClassificationReasoning != "" {
		collect(s.rules.ScoreContent(result.ClassificationReasoning, rules.ContentClassification))
	}
	if result.DominantPurpose != "" {
		collect(s.rules.ScoreContent(result.DominantPurpose, rules.ContentDominantPurpose))
	}

	// Absent-but-optional sections score neutral, never zero.
	avgRule := float64(neutralScore)
	if len(sectionScores) > 0 {
		sum := 0
		for _, v := range sectionScores {
			sum += v
		}
		avgRule = float64(sum) / float64(len(sectionScores))
	}

	eval := s.evaluateWithAI(ctx, result)
	risks = append(risks, eval.RiskFactors...)
	strengths = append(strengths, eval.StrengthFactors...)

	overall := clampScore(int(math.Round(avgRule*s.cfg.RuleWeight + float64(eval.AIScore)*s.cfg.AIWeight)))

	dedupedRisks := dedupRisks(risks)
	dedupedStrengths := dedupStrengths(strengths)

	// Most damaging risks first (impacts are negative), most beneficial
	// strengths first.
	sort.SliceStable(dedupedRisks, func(i, j int) bool {
		return dedupedRisks[i].Impact < dedupedRisks[j].Impact
	})
	sort.SliceStable(dedupedStrengths, func(i, j int) bool {
		return dedupedStrengths[i].Impact > dedupedStrengths[j].Impact
	})

	return SuccessScore{
		OverallScore: overall,
		RiskLevel:    riskLevel(overall),
		Breakdown: Breakdown{
			RiskFactors:     dedupedRisks,
			StrengthFactors: dedupedStrengths,
		},
		OverallAssessment: eval.OverallAssessment,
	}
}

// evaluateWithAI performs the holistic model call. Every failure path
// (missing client, rate-limit wait, timeout, transport error, unparseable
// output) returns the neutral fallback.
func (s *Scorer) evaluateWithAI(ctx context.Context, result ReviewResult) *aiEvaluation {
	fallback := &aiEvaluation{AIScore: neutralScore, OverallAssessment: fallbackAssessment}

	if s.ai == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			zap.L().Warn("review: AI rate-limit wait aborted", zap.Error(err))
			return fallback
		}
	}

	temperature := 0.1
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(result)}},
		Temperature: &temperature,
	})
	if err != nil {
		zap.L().Warn("review: AI evaluation failed, using rule-only fallback", zap.Error(err))
		return fallback
	}

	eval, err := parseAIResponse(resp.Text())
	if err != nil {
		zap.L().Warn("review: AI response unusable, using rule-only fallback", zap.Error(err))
		return fallback
	}

	if eval.OverallAssessment == "" {
		eval.OverallAssessment = fallbackAssessment
	}
	return eval
}

// buildPrompt assembles a single holistic prompt from the available sections.
func buildPrompt(result ReviewResult) string {
	var sb strings.Builder
	sb.WriteString("Assess the following draft R&D Tax Incentive submission content.\n")

	if result.HEC != nil {
		sb.WriteString("\n## Hypothesis-Experiment-Conclusion\n")
		sb.WriteString("Hypothesis: " + result.HEC.Hypothesis + "\n")
		sb.WriteString("Experiment: " + result.HEC.Experiment + "\n")
		sb.WriteString("Observation: " + result.HEC.Observation + "\n")
		sb.WriteString("Evaluation: " + result.HEC.Evaluation + "\n")
		sb.WriteString("Conclusion: " + result.HEC.Conclusion + "\n")
	}
	if len(result.UncertaintyStatements) > 0 {
		sb.WriteString("\n## Technical uncertainty statements\n")
		for i, statement := range result.UncertaintyStatements {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, statement)
		}
	}
	if result.ClassificationReasoning != "" {
		sb.WriteString("\n## Activity classification reasoning\n")
		sb.WriteString(result.ClassificationReasoning + "\n")
	}
	if result.DominantPurpose != "" {
		sb.WriteString("\n## Dominant purpose justification\n")
		sb.WriteString(result.DominantPurpose + "\n")
	}

	return sb.String()
}

// dedupRisks collapses risks sharing the same normalized description prefix,
// keeping the more negative impact.
func dedupRisks(factors []rules.RiskFactor) []rules.RiskFactor {
	index := make(map[string]int)
	var out []rules.RiskFactor
	for _, f := range factors {
		key := dedupKey(f.Description)
		if i, ok := index[key]; ok {
			if f.Impact < out[i].Impact {
				out[i] = f
			}
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}

// dedupStrengths is the symmetric pass keeping the higher positive impact.
func dedupStrengths(factors []rules.StrengthFactor) []rules.StrengthFactor {
	index := make(map[string]int)
	var out []rules.StrengthFactor
	for _, f := range factors {
		key := dedupKey(f.Description)
		if i, ok := index[key]; ok {
			if f.Impact > out[i].Impact {
				out[i] = f
			}
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}

func dedupKey(description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	if len(key) > dedupPrefix {
		key = key[:dedupPrefix]
	}
	return key
}

func riskLevel(score int) string {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
