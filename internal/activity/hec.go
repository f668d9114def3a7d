// Package activity holds activity-domain validation used by the compliance
// engine's documentation-completeness check.
package activity

import (
	"fmt"
	"strings"

	"github.com/sells-group/rdti-cli/internal/model"
)

// minFieldLength is the floor below which an H-E-C field counts as missing
// for compliance purposes. Quality scoring applies stricter per-field
// thresholds; this check only establishes that documentation exists.
const minFieldLength = 20

// ValidateHEC returns one finding per missing or inadequate H-E-C field.
// An empty slice means the block is complete.
func ValidateHEC(hec model.HEC) []string {
	var findings []string

	fields := []struct {
		name  string
		value string
	}{
		{"hypothesis", hec.Hypothesis},
		{"experiment", hec.Experiment},
		{"observation", hec.Observation},
		{"evaluation", hec.Evaluation},
		{"conclusion", hec.Conclusion},
	}

	for _, f := range fields {
		trimmed := strings.TrimSpace(f.value)
		switch {
		case trimmed == "":
			findings = append(findings, fmt.Sprintf("%s is missing", f.name))
		case len(trimmed) < minFieldLength:
			findings = append(findings, fmt.Sprintf("%s is too brief to evidence the activity", f.name))
		}
	}

	return findings
}
