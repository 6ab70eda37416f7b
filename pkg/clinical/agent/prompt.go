package agent

import (
	"fmt"
	"strings"

	"clinical-intelligence-be/pkg/clinical"
)

const (
	ScribeHeader  = "AGENT: CLINICAL SCRIBE"
	AuditorHeader = "AGENT: CLINICAL AUDITOR / LIABILITY SHIELD"
)

// ScribePrompt builds the drafting request.
type ScribePrompt struct {
	RawText     string
	HistoryText string
	Org         clinical.OrgContext
}

func (p ScribePrompt) Build() string {
	var prompt strings.Builder

	prompt.WriteString(ScribeHeader + "\n")
	fmt.Fprintf(&prompt, "GOAL: Generate a professional %s note.\n", p.Org.Schema())
	if tone := strings.TrimSpace(p.Org.ToneConstraints); tone != "" {
		fmt.Fprintf(&prompt, "TONE: %s\n", tone)
	}
	prompt.WriteString("\n")

	prompt.WriteString("<past_context>\n")
	prompt.WriteString(p.HistoryText)
	prompt.WriteString("\n</past_context>\n\n")

	prompt.WriteString("<raw_notes>\n")
	prompt.WriteString(p.RawText)
	prompt.WriteString("\n</raw_notes>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Return ONLY a valid JSON object, no prose and no markdown, with exactly these string fields:\n")
	prompt.WriteString(`{"subjective": "...", "objective": "...", "assessment": "...", "plan": "...", "risk_assessment": "..."}`)
	prompt.WriteString("\n")
	fmt.Fprintf(&prompt, "Map the sections of the %s format onto these fields.\n", p.Org.Schema())
	prompt.WriteString("</output_format>\n\n")

	prompt.WriteString("JSON Response:")
	return prompt.String()
}

// AuditPrompt builds the critique request.
type AuditPrompt struct {
	DraftRaw      string
	Instructions  string
	PolicyContext string
}

func (p AuditPrompt) Build() string {
	var prompt strings.Builder

	prompt.WriteString(AuditorHeader + "\n")
	prompt.WriteString("GOAL: Review the clinical draft against standard clinical practices AND organization-specific policies.\n\n")

	// Policy text is retrieved, not authoritative. The auditor weighs it, it does not quote it back.
	if policy := strings.TrimSpace(p.PolicyContext); policy != "" {
		prompt.WriteString("<org_policies>\n")
		prompt.WriteString(policy)
		prompt.WriteString("\n</org_policies>\n")
		prompt.WriteString("Treat the policies above as advisory requirements. Do not copy them into your answer.\n\n")
	}

	prompt.WriteString("<org_instructions>\n")
	prompt.WriteString(p.Instructions)
	prompt.WriteString("\n</org_instructions>\n\n")

	prompt.WriteString("<draft>\n")
	prompt.WriteString(p.DraftRaw)
	prompt.WriteString("\n</draft>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Return ONLY a valid JSON object with:\n")
	prompt.WriteString("- liability_flags: list of phrases or omissions that increase liability\n")
	prompt.WriteString("- clinical_clarity_score: number from 0 to 1\n")
	prompt.WriteString("- suggestions: list of specific improvements for the scribe\n")
	prompt.WriteString("- risk_level: one of \"Low\", \"Medium\", \"High\"\n")
	prompt.WriteString("</output_format>\n\n")

	prompt.WriteString("JSON Critique:")
	return prompt.String()
}
