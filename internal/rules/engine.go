package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rdti-cli/internal/model"
)

// baseScore is the neutral starting point before rule adjustments.
const baseScore = 70

// pastTenseMarkers detect past-tense narration without NLP: any marker word
// present in the field counts.
var pastTenseMarkers = []string{
	"was", "were", "did", "had", "tested", "measured", "observed", "recorded",
	"conducted", "performed", "completed", "found", "showed", "demonstrated",
	"resulted", "achieved", "identified", "compared", "evaluated", "analysed",
	"analyzed", "built", "ran", "implemented",
}

// Engine scores content against a rule table. Regexes are compiled once at
// construction; scoring is pure and safe for concurrent use.
type Engine struct {
	table         Table
	riskRegex     map[string][]*regexp.Regexp
	strengthRegex map[string][]*regexp.Regexp
}

// NewEngine validates the table, compiles its regexes, and returns an Engine.
func NewEngine(t Table) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		table:         t,
		riskRegex:     make(map[string][]*regexp.Regexp),
		strengthRegex: make(map[string][]*regexp.Regexp),
	}
	for _, r := range t.Risks {
		compiled, err := compileAll(r.Regex)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: compile risk %s", r.ID)
		}
		e.riskRegex[r.ID] = compiled
	}
	for _, s := range t.Strengths {
		compiled, err := compileAll(s.Regex)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: compile strength %s", s.ID)
		}
		e.strengthRegex[s.ID] = compiled
	}
	return e, nil
}

// DefaultEngine returns an Engine over the built-in table.
func DefaultEngine() *Engine {
	e, err := NewEngine(Default())
	if err != nil {
		// The built-in table is validated by tests; reaching here is a bug.
		panic(err)
	}
	return e
}

// ScoreContent runs the risk and strength passes over one content section.
// Any pattern or regex hit counts as a match (OR-combined). Rules with zero
// impact are informational and skipped. The score starts at 70 and is
// clamped to [0,100].
func (e *Engine) ScoreContent(content string, contentType ContentType) ContentScore {
	lower := strings.ToLower(content)
	result := ContentScore{RuleScore: baseScore}
	adjustment := 0

	for _, r := range e.table.Risks {
		if r.Impact == 0 || !appliesTo(r.AppliesTo, contentType) {
			continue
		}
		if matches(lower, content, r.Patterns, e.riskRegex[r.ID]) {
			result.Risks = append(result.Risks, RiskFactor{
				Category:    r.Category,
				Description: r.Description,
				Impact:      r.Impact,
				Suggestion:  r.Suggestion,
			})
			adjustment += r.Impact
		}
	}

	for _, s := range e.table.Strengths {
		if s.Impact == 0 || !appliesTo(s.AppliesTo, contentType) {
			continue
		}
		if matches(lower, content, s.Patterns, e.strengthRegex[s.ID]) {
			result.Strengths = append(result.Strengths, StrengthFactor{
				Category:    s.Category,
				Description: s.Description,
				Impact:      s.Impact,
			})
			adjustment += s.Impact
		}
	}

	result.RuleScore = clamp(baseScore + adjustment)
	return result
}

// ScoreHEC scores an H-E-C block: the pattern pass runs over the
// concatenation of all five fields, then every field-level quality check
// runs against its target field. Failed checks contribute structure-category
// risk factors.
func (e *Engine) ScoreHEC(hec model.HEC) ContentScore {
	combined := strings.Join([]string{
		hec.Hypothesis, hec.Experiment, hec.Observation, hec.Evaluation, hec.Conclusion,
	}, "\n\n")

	result := e.ScoreContent(combined, ContentHEC)
	adjustment := 0

	for _, check := range e.table.HECChecks {
		field := hecField(hec, check.Field)
		failed, detail := evaluateCheck(check, field)
		if !failed {
			continue
		}
		result.Risks = append(result.Risks, RiskFactor{
			Category:    "structure",
			Description: detail,
			Impact:      check.FailImpact,
			Suggestion:  check.Suggestion,
		})
		adjustment += check.FailImpact
	}

	result.RuleScore = clamp(result.RuleScore + adjustment)
	return result
}

// evaluateCheck returns whether the check failed and a description of the
// failure.
func evaluateCheck(check HECQualityCheck, field string) (bool, string) {
	trimmed := strings.TrimSpace(field)
	lower := strings.ToLower(trimmed)

	switch check.Kind {
	case CheckMinLength:
		if len(trimmed) < check.Threshold {
			return true, fmt.Sprintf("%s is too short (%d of %d characters)",
				titleField(check.Field), len(trimmed), check.Threshold)
		}
	case CheckMaxLength:
		if len(trimmed) > check.Threshold {
			return true, fmt.Sprintf("%s is too long (%d characters, limit %d)",
				titleField(check.Field), len(trimmed), check.Threshold)
		}
	case CheckContainsPattern:
		for _, p := range check.Patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("%s is missing expected language (%s)",
			titleField(check.Field), strings.Join(check.Patterns, ", "))
	case CheckNotContainsPattern:
		for _, p := range check.Patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return true, fmt.Sprintf("%s contains placeholder text %q",
					titleField(check.Field), p)
			}
		}
	case CheckPastTense:
		if !hasPastTenseMarker(lower) {
			return true, fmt.Sprintf("%s is not written in past tense",
				titleField(check.Field))
		}
	}
	return false, ""
}

func hecField(h model.HEC, field string) string {
	switch field {
	case "hypothesis":
		return h.Hypothesis
	case "experiment":
		return h.Experiment
	case "observation":
		return h.Observation
	case "evaluation":
		return h.Evaluation
	case "conclusion":
		return h.Conclusion
	}
	return ""
}

func hasPastTenseMarker(lower string) bool {
	for _, marker := range pastTenseMarkers {
		if containsWord(lower, marker) {
			return true
		}
	}
	return false
}

// containsWord reports whether word appears in s on word boundaries.
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// matches reports whether any substring pattern (case-insensitive) or regex
// hits the content.
func matches(lower, original string, patterns []string, regexes []*regexp.Regexp) bool {
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	for _, re := range regexes {
		if re.MatchString(original) {
			return true
		}
	}
	return false
}

func appliesTo(types []ContentType, ct ContentType) bool {
	for _, t := range types {
		if t == ct {
			return true
		}
	}
	return false
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func titleField(f string) string {
	if f == "" {
		return f
	}
	return strings.ToUpper(f[:1]) + f[1:]
}
