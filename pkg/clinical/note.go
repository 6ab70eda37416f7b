package clinical

import (
	"fmt"
	"strings"
)

// Draft is the structured clinical note produced by the scribe.
type Draft struct {
	Subjective     string `json:"subjective"`
	Objective      string `json:"objective"`
	Assessment     string `json:"assessment"`
	Plan           string `json:"plan"`
	RiskAssessment string `json:"risk_assessment"`
}

type draftWire struct {
	Subjective     *string `json:"subjective"`
	Objective      *string `json:"objective"`
	Assessment     *string `json:"assessment"`
	Plan           *string `json:"plan"`
	RiskAssessment *string `json:"risk_assessment"`
}

// ParseDraft turns raw scribe output into a Draft. Every field must be present as a
// string; an empty string is a valid answer (a session with no objective findings).
func ParseDraft(raw string) (*Draft, error) {
	var w draftWire
	if err := decodeObject(raw, &w); err != nil {
		return nil, &ParseError{Stage: StageDraft, Raw: raw, Err: err}
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"subjective", w.Subjective},
		{"objective", w.Objective},
		{"assessment", w.Assessment},
		{"plan", w.Plan},
		{"risk_assessment", w.RiskAssessment},
	}
	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Stage: StageDraft,
			Raw:   raw,
			Err:   fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")),
		}
	}

	return &Draft{
		Subjective:     *w.Subjective,
		Objective:      *w.Objective,
		Assessment:     *w.Assessment,
		Plan:           *w.Plan,
		RiskAssessment: *w.RiskAssessment,
	}, nil
}
