package main

import (
	"fmt"
	"io"
	"strings"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/pkg/clinical"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	riskColor = color.New(color.FgRed, color.Bold)
)

func riskPrinter(level string) *color.Color {
	switch clinical.RiskLevel(level) {
	case clinical.RiskHigh:
		return riskColor
	case clinical.RiskMedium:
		return warnColor
	default:
		return okColor
	}
}

func printSummary(w io.Writer, result *clinical.PipelineResult, highRisk bool) {
	if result.IsDegraded() {
		warnColor.Fprintf(w, "degraded: %s\n", result.Degraded.Reason)
	} else {
		level := string(result.RiskLevel())
		riskPrinter(level).Fprintf(w, "structured note, risk level %s\n", level)
	}
	if !result.Markers.IsSentinel() {
		fmt.Fprintf(w, "themes: %s  intensity %.0f  progress %.0f  risk score %.0f\n",
			strings.Join(result.Markers.PrimaryThemes, ", "),
			result.Markers.EmotionalIntensity,
			result.Markers.GoalProgress,
			result.Markers.RiskScore,
		)
	}
	if highRisk {
		riskColor.Fprintln(w, "HIGH RISK: review before saving")
	}
}

func printHistory(w io.Writer, sessions []*dto.HistoricalSessionResponse) {
	if len(sessions) == 0 {
		warnColor.Fprintln(w, "no saved sessions")
		return
	}
	for _, s := range sessions {
		level := s.RiskLevel
		if s.Degraded {
			level = "degraded"
		}
		fmt.Fprintf(w, "%s  %-36s  ", s.CreatedAt, s.SessionId)
		riskPrinter(s.RiskLevel).Fprintf(w, "%-8s", level)
		fmt.Fprintf(w, "  %s\n", strings.Join(s.Markers.PrimaryThemes, ", "))
	}
}
