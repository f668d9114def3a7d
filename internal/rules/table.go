package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// allContent is shorthand for rules applying to every section.
var allContent = []ContentType{ContentHEC, ContentUncertainty, ContentClassification, ContentDominantPurpose}

// Default returns the built-in rule table. The length thresholds and impacts
// are domain-tuned against reviewed ATO submissions; change them via an
// external table file rather than here.
func Default() Table {
	return Table{
		Version: "2024.1",
		Risks: []RiskRule{
			{
				ID:          "routine-activity",
				Category:    "eligibility",
				Description: "Language suggests routine or business-as-usual work rather than experimental R&D",
				Patterns:    []string{"routine", "business as usual", "standard practice", "off the shelf", "off-the-shelf"},
				Impact:      -15,
				Suggestion:  "Describe what made the work experimental rather than routine, and why the outcome could not be known in advance",
				AppliesTo:   allContent,
			},
			{
				ID:          "known-solution",
				Category:    "uncertainty",
				Description: "Text implies the solution was already known or documented",
				Patterns:    []string{"well known", "well-known", "established method", "textbook", "documented solution", "existing solution"},
				Impact:      -12,
				Suggestion:  "Explain why existing knowledge could not resolve the technical uncertainty",
				AppliesTo:   []ContentType{ContentHEC, ContentUncertainty},
			},
			{
				ID:          "commercial-purpose",
				Category:    "dominant_purpose",
				Description: "Commercial rather than technical framing dominates the justification",
				Patterns:    []string{"market research", "customer feedback", "sales growth", "marketing", "commercial advantage"},
				Impact:      -12,
				Suggestion:  "Frame the justification around the technical objective the activity serves",
				AppliesTo:   []ContentType{ContentClassification, ContentDominantPurpose},
			},
			{
				ID:          "vague-outcome",
				Category:    "clarity",
				Description: "Hedged or vague outcome language weakens the hypothesis",
				Patterns:    []string{"we hope", "hopefully", "might work", "should probably", "possibly achieve"},
				Impact:      -8,
				Suggestion:  "State a testable prediction with measurable success criteria",
				AppliesTo:   []ContentType{ContentHEC, ContentUncertainty},
			},
			{
				ID:          "whole-project-claim",
				Category:    "classification",
				Description: "Claims the entire project or all development as a single R&D activity",
				Patterns:    []string{"entire project", "all of our development", "everything we built", "whole project"},
				Impact:      -10,
				Suggestion:  "Separate the experimental core activities from ordinary development work",
				AppliesTo:   []ContentType{ContentHEC, ContentClassification},
			},
			{
				ID:          "software-bau",
				Category:    "eligibility",
				Description: "Ordinary software maintenance language (bug fixing, refactoring, cosmetic changes)",
				Patterns:    []string{"bug fix", "bug-fix", "refactoring", "ui polish", "cosmetic change"},
				Impact:      -10,
				Suggestion:  "Maintenance work is not eligible; limit the activity description to the experimental component",
				AppliesTo:   allContent,
			},
			{
				ID:          "unsubstantiated-novelty",
				Category:    "clarity",
				Description: "Grand novelty claims without technical substantiation",
				Patterns:    []string{"world first", "world-first", "revolutionary", "game changing", "game-changing"},
				Impact:      -5,
				Suggestion:  "Replace novelty claims with the specific technical gap the work addresses",
				AppliesTo:   allContent,
			},
			{
				ID:          "replication",
				Category:    "uncertainty",
				Description: "Work described as replicating an existing product or competitor feature",
				Patterns:    []string{"replicate existing", "same as competitor", "copy of", "based on competitor"},
				Impact:      -12,
				Suggestion:  "Reproducing a known product is not R&D unless the method itself was technically uncertain",
				AppliesTo:   []ContentType{ContentHEC, ContentClassification},
			},
			{
				ID:          "future-tense-experiment",
				Category:    "structure",
				Description: "Experiment described prospectively rather than as conducted work",
				Regex:       []string{`(?i)\b(will|plan to|intend to)\s+(test|experiment|trial|measure)`},
				Impact:      -6,
				Suggestion:  "Record experiments as conducted work with dates and observed results",
				AppliesTo:   []ContentType{ContentHEC},
			},
			{
				// Informational only: overseas work is assessed by the
				// compliance engine's overseas-finding check, not scored here.
				ID:          "overseas-mention",
				Category:    "compliance",
				Description: "Mentions overseas activity; verify an overseas finding is in place",
				Patterns:    []string{"overseas", "offshore team", "conducted abroad"},
				Impact:      0,
				AppliesTo:   allContent,
			},
		},
		Strengths: []StrengthRule{
			{
				ID:          "uncertainty-articulated",
				Category:    "uncertainty",
				Description: "Technical uncertainty explicitly articulated",
				Patterns:    []string{"technical uncertainty", "could not be known in advance", "could not be determined in advance", "unknown whether"},
				Impact:      8,
				AppliesTo:   allContent,
			},
			{
				ID:          "systematic-progression",
				Category:    "method",
				Description: "Systematic progression of work from hypothesis to conclusion",
				Patterns:    []string{"systematic", "hypothesis", "iteration", "experimental design"},
				Impact:      6,
				AppliesTo:   []ContentType{ContentHEC, ContentClassification},
			},
			{
				ID:          "quantified-results",
				Category:    "evidence",
				Description: "Results are quantified against a benchmark or metric",
				Patterns:    []string{"benchmark", "measured", "quantified", "success criteria"},
				Regex:       []string{`\d+(\.\d+)?\s?(%|ms|seconds|x)`},
				Impact:      6,
				AppliesTo:   []ContentType{ContentHEC, ContentUncertainty},
			},
			{
				ID:          "prior-art-search",
				Category:    "uncertainty",
				Description: "Evidence of a search for existing knowledge before experimenting",
				Patterns:    []string{"literature review", "literature search", "patent search", "prior art"},
				Impact:      6,
				AppliesTo:   []ContentType{ContentHEC, ContentUncertainty},
			},
			{
				ID:          "competent-professional",
				Category:    "uncertainty",
				Description: "Frames uncertainty from the competent-professional standard",
				Patterns:    []string{"competent professional", "could not determine the outcome"},
				Impact:      5,
				AppliesTo:   []ContentType{ContentHEC, ContentUncertainty},
			},
			{
				ID:          "controlled-method",
				Category:    "method",
				Description: "Controlled experimental method with baseline or control conditions",
				Patterns:    []string{"control group", "baseline", "variables held constant", "controlled conditions"},
				Impact:      5,
				AppliesTo:   []ContentType{ContentHEC},
			},
			{
				ID:          "documented-observation",
				Category:    "evidence",
				Description: "Observations documented as recorded outcomes",
				Patterns:    []string{"we observed", "results showed", "data indicated", "we recorded"},
				Impact:      5,
				AppliesTo:   []ContentType{ContentHEC},
			},
			{
				ID:          "genuine-failure",
				Category:    "evidence",
				Description: "Reports failed or unsuccessful attempts, evidence of genuine experimentation",
				Patterns:    []string{"unsuccessful attempt", "did not achieve", "failed to meet", "the experiment failed"},
				Impact:      4,
				AppliesTo:   []ContentType{ContentHEC},
			},
		},
		HECChecks: []HECQualityCheck{
			{ID: "hypothesis-length", Field: "hypothesis", Kind: CheckMinLength, Threshold: 100, FailImpact: -10,
				Suggestion: "Expand the hypothesis to at least 100 characters covering the predicted outcome and its technical basis"},
			{ID: "experiment-length", Field: "experiment", Kind: CheckMinLength, Threshold: 150, FailImpact: -10,
				Suggestion: "Describe the experiment in at least 150 characters: method, variables, and how results were captured"},
			{ID: "observation-length", Field: "observation", Kind: CheckMinLength, Threshold: 80, FailImpact: -10,
				Suggestion: "Record at least 80 characters of observed results"},
			{ID: "evaluation-length", Field: "evaluation", Kind: CheckMinLength, Threshold: 80, FailImpact: -10,
				Suggestion: "Evaluate the observations against the hypothesis in at least 80 characters"},
			{ID: "conclusion-length", Field: "conclusion", Kind: CheckMinLength, Threshold: 100, FailImpact: -10,
				Suggestion: "State what was learned in at least 100 characters, including whether the hypothesis held"},
			{ID: "hypothesis-testable", Field: "hypothesis", Kind: CheckContainsPattern,
				Patterns: []string{"if", "then", "expect", "predict"}, FailImpact: -5,
				Suggestion: "Phrase the hypothesis as a testable prediction (if/then, expected outcome)"},
			{ID: "hypothesis-placeholder", Field: "hypothesis", Kind: CheckNotContainsPattern,
				Patterns: []string{"tbd", "to be determined", "todo", "n/a"}, FailImpact: -8,
				Suggestion: "Remove placeholder text from the hypothesis"},
			{ID: "conclusion-placeholder", Field: "conclusion", Kind: CheckNotContainsPattern,
				Patterns: []string{"tbd", "to be determined", "todo", "n/a"}, FailImpact: -8,
				Suggestion: "Remove placeholder text from the conclusion"},
			{ID: "experiment-past-tense", Field: "experiment", Kind: CheckPastTense, FailImpact: -5,
				Suggestion: "Write the experiment as conducted work, in past tense"},
			{ID: "observation-past-tense", Field: "observation", Kind: CheckPastTense, FailImpact: -5,
				Suggestion: "Write observations as recorded outcomes, in past tense"},
			{ID: "hypothesis-max-length", Field: "hypothesis", Kind: CheckMaxLength, Threshold: 2000, FailImpact: -3,
				Suggestion: "Trim the hypothesis; a focused statement under 2000 characters reviews better"},
		},
	}
}

// LoadFile reads a rule table from a YAML file and validates it.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, eris.Wrapf(err, "rules: read table %s", path)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, eris.Wrapf(err, "rules: parse table %s", path)
	}

	if err := t.Validate(); err != nil {
		return Table{}, eris.Wrapf(err, "rules: invalid table %s", path)
	}
	return t, nil
}

// Validate checks sign conventions, pattern presence, and regex syntax.
func (t Table) Validate() error {
	var errs []string

	for _, r := range t.Risks {
		if r.Impact > 0 {
			errs = append(errs, fmt.Sprintf("risk %q has positive impact %d", r.ID, r.Impact))
		}
		if len(r.Patterns) == 0 && len(r.Regex) == 0 {
			errs = append(errs, fmt.Sprintf("risk %q has no patterns", r.ID))
		}
		if len(r.AppliesTo) == 0 {
			errs = append(errs, fmt.Sprintf("risk %q applies to nothing", r.ID))
		}
		errs = append(errs, checkRegexes(r.ID, r.Regex)...)
	}

	for _, s := range t.Strengths {
		if s.Impact <= 0 {
			errs = append(errs, fmt.Sprintf("strength %q has non-positive impact %d", s.ID, s.Impact))
		}
		if len(s.Patterns) == 0 && len(s.Regex) == 0 {
			errs = append(errs, fmt.Sprintf("strength %q has no patterns", s.ID))
		}
		if len(s.AppliesTo) == 0 {
			errs = append(errs, fmt.Sprintf("strength %q applies to nothing", s.ID))
		}
		errs = append(errs, checkRegexes(s.ID, s.Regex)...)
	}

	for _, c := range t.HECChecks {
		if !validHECField(c.Field) {
			errs = append(errs, fmt.Sprintf("hec check %q targets unknown field %q", c.ID, c.Field))
		}
		if c.FailImpact >= 0 {
			errs = append(errs, fmt.Sprintf("hec check %q has non-negative fail impact %d", c.ID, c.FailImpact))
		}
		switch c.Kind {
		case CheckMinLength, CheckMaxLength:
			if c.Threshold <= 0 {
				errs = append(errs, fmt.Sprintf("hec check %q needs a positive threshold", c.ID))
			}
		case CheckContainsPattern, CheckNotContainsPattern:
			if len(c.Patterns) == 0 {
				errs = append(errs, fmt.Sprintf("hec check %q needs patterns", c.ID))
			}
		case CheckPastTense:
		default:
			errs = append(errs, fmt.Sprintf("hec check %q has unknown kind %q", c.ID, c.Kind))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("rules: table validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func checkRegexes(id string, patterns []string) []string {
	var errs []string
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("rule %q regex %q: %v", id, p, err))
		}
	}
	return errs
}

func validHECField(f string) bool {
	switch f {
	case "hypothesis", "experiment", "observation", "evaluation", "conclusion":
		return true
	}
	return false
}
