package clinical

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MarkerScoreMin = 1.0
	MarkerScoreMax = 10.0

	// HighRiskScore is the marker risk score from which a session is flagged.
	HighRiskScore = 8.0
)

// MarkerSet is the fixed-shape quantitative summary of a session.
type MarkerSet struct {
	PrimaryThemes      []string `json:"primary_themes"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	GoalProgress       float64  `json:"goal_progress"`
	RiskScore          float64  `json:"risk_score"`
}

// SentinelMarkers is substituted whenever marker extraction fails.
func SentinelMarkers() MarkerSet {
	return MarkerSet{
		PrimaryThemes:      []string{"Error"},
		EmotionalIntensity: 5.0,
		GoalProgress:       5.0,
		RiskScore:          1.0,
	}
}

func (m MarkerSet) IsSentinel() bool {
	s := SentinelMarkers()
	return len(m.PrimaryThemes) == 1 && m.PrimaryThemes[0] == s.PrimaryThemes[0] &&
		m.EmotionalIntensity == s.EmotionalIntensity &&
		m.GoalProgress == s.GoalProgress &&
		m.RiskScore == s.RiskScore
}

type markerWire struct {
	PrimaryThemes      *[]string  `json:"primary_themes"`
	EmotionalIntensity *flexFloat `json:"emotional_intensity"`
	GoalProgress       *flexFloat `json:"goal_progress"`
	RiskScore          *flexFloat `json:"risk_score"`
}

func ParseMarkers(raw string) (*MarkerSet, error) {
	var w markerWire
	if err := decodeObject(raw, &w); err != nil {
		return nil, &ParseError{Stage: StageMarkers, Raw: raw, Err: err}
	}
	fail := func(err error) (*MarkerSet, error) {
		return nil, &ParseError{Stage: StageMarkers, Raw: raw, Err: err}
	}

	if w.PrimaryThemes == nil || len(*w.PrimaryThemes) == 0 {
		return fail(errors.New("missing primary_themes"))
	}
	themes := make([]string, 0, len(*w.PrimaryThemes))
	for _, t := range *w.PrimaryThemes {
		if t = strings.TrimSpace(t); t != "" {
			themes = append(themes, t)
		}
	}
	if len(themes) == 0 {
		return fail(errors.New("primary_themes has no usable entries"))
	}

	scores := []struct {
		name  string
		value *flexFloat
	}{
		{"emotional_intensity", w.EmotionalIntensity},
		{"goal_progress", w.GoalProgress},
		{"risk_score", w.RiskScore},
	}
	for _, s := range scores {
		if s.value == nil {
			return fail(fmt.Errorf("missing %s", s.name))
		}
		if v := float64(*s.value); v < MarkerScoreMin || v > MarkerScoreMax {
			return fail(fmt.Errorf("%s %v outside [1,10]", s.name, v))
		}
	}

	return &MarkerSet{
		PrimaryThemes:      themes,
		EmotionalIntensity: float64(*w.EmotionalIntensity),
		GoalProgress:       float64(*w.GoalProgress),
		RiskScore:          float64(*w.RiskScore),
	}, nil
}
