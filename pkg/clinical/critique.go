package clinical

import (
	"errors"
	"fmt"
	"strings"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel is case-insensitive on input and returns the canonical spelling.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Critique is the auditor's liability and quality assessment of a draft.
type Critique struct {
	LiabilityFlags       []string  `json:"liability_flags"`
	ClinicalClarityScore float64   `json:"clinical_clarity_score"`
	Suggestions          []string  `json:"suggestions"`
	RiskLevel            RiskLevel `json:"risk_level"`
}

type critiqueWire struct {
	LiabilityFlags       *[]string  `json:"liability_flags"`
	ClinicalClarityScore *flexFloat `json:"clinical_clarity_score"`
	Suggestions          *[]string  `json:"suggestions"`
	RiskLevel            *string    `json:"risk_level"`
}

func ParseCritique(raw string) (*Critique, error) {
	var w critiqueWire
	if err := decodeObject(raw, &w); err != nil {
		return nil, &ParseError{Stage: StageCritique, Raw: raw, Err: err}
	}

	fail := func(err error) (*Critique, error) {
		return nil, &ParseError{Stage: StageCritique, Raw: raw, Err: err}
	}

	switch {
	case w.LiabilityFlags == nil:
		return fail(errors.New("missing liability_flags"))
	case w.Suggestions == nil:
		return fail(errors.New("missing suggestions"))
	case w.ClinicalClarityScore == nil:
		return fail(errors.New("missing clinical_clarity_score"))
	case w.RiskLevel == nil:
		return fail(errors.New("missing risk_level"))
	}

	score := float64(*w.ClinicalClarityScore)
	if score < 0 || score > 1 {
		return fail(fmt.Errorf("clinical_clarity_score %v outside [0,1]", score))
	}
	level, err := ParseRiskLevel(*w.RiskLevel)
	if err != nil {
		return fail(err)
	}

	return &Critique{
		LiabilityFlags:       nonNil(*w.LiabilityFlags),
		ClinicalClarityScore: score,
		Suggestions:          nonNil(*w.Suggestions),
		RiskLevel:            level,
	}, nil
}
