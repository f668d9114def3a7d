package review

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoJSON indicates the model response contained no JSON object at all,
// as opposed to JSON that failed to match the expected schema.
var ErrNoJSON = eris.New("review: no JSON object in AI response")

// parseAIResponse extracts the structured evaluation from raw model output.
// Models wrap JSON in markdown fences or surrounding prose often enough that
// tolerant extraction is part of the contract: fences are stripped and the
// outermost {...} block is used.
func parseAIResponse(text string) (*aiEvaluation, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, ErrNoJSON
	}

	var eval aiEvaluation
	if err := json.Unmarshal([]byte(cleaned), &eval); err != nil {
		return nil, eris.Wrap(err, "review: parse AI response")
	}

	if eval.AIScore < 0 {
		eval.AIScore = 0
	}
	if eval.AIScore > 100 {
		eval.AIScore = 100
	}
	return &eval, nil
}

// cleanJSON strips markdown fences and extracts the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
