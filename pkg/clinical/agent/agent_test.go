package agent

import (
	"context"
	"strings"
	"testing"

	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/llm/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScribePrompt(t *testing.T) {
	tests := []struct {
		name       string
		org        clinical.OrgContext
		wantSchema string
		wantTone   bool
	}{
		{name: "default schema", org: clinical.OrgContext{}, wantSchema: "SOAP"},
		{name: "org schema", org: clinical.OrgContext{PreferredSchema: "DAP"}, wantSchema: "DAP"},
		{name: "tone", org: clinical.OrgContext{ToneConstraints: "Use person-first language."}, wantSchema: "SOAP", wantTone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := ScribePrompt{
				RawText:     "RAW",
				HistoryText: "HISTORY",
				Org:         tt.org,
			}.Build()

			assert.True(t, strings.HasPrefix(prompt, ScribeHeader))
			assert.Contains(t, prompt, "professional "+tt.wantSchema+" note")
			assert.Contains(t, prompt, "<past_context>\nHISTORY\n</past_context>")
			assert.Contains(t, prompt, "<raw_notes>\nRAW\n</raw_notes>")
			assert.Contains(t, prompt, `"risk_assessment"`)
			assert.Equal(t, tt.wantTone, strings.Contains(prompt, "TONE: "))
		})
	}
}

func TestAuditPrompt(t *testing.T) {
	t.Run("with policy", func(t *testing.T) {
		prompt := AuditPrompt{DraftRaw: "DRAFT", Instructions: "INSTR", PolicyContext: "POLICY"}.Build()
		assert.True(t, strings.HasPrefix(prompt, AuditorHeader))
		assert.Contains(t, prompt, "<org_policies>\nPOLICY\n</org_policies>")
		assert.Contains(t, prompt, "<org_instructions>\nINSTR\n</org_instructions>")
		assert.Contains(t, prompt, "<draft>\nDRAFT\n</draft>")
		for _, field := range []string{"liability_flags", "clinical_clarity_score", "suggestions", "risk_level"} {
			assert.Contains(t, prompt, field)
		}
	})

	t.Run("without policy", func(t *testing.T) {
		prompt := AuditPrompt{DraftRaw: "DRAFT", Instructions: "INSTR", PolicyContext: "  "}.Build()
		assert.NotContains(t, prompt, "<org_policies>")
	})
}

func TestAgentsReturnRawOutput(t *testing.T) {
	provider := mock.NewScriptedProvider(
		mock.Rule{Match: ScribeHeader, Reply: "not even json"},
		mock.Rule{Match: AuditorHeader, Reply: "```json\n{}\n```"},
	)

	draft, err := NewScribe(provider).Draft(context.Background(), "raw", clinical.NewClientHistory, clinical.OrgContext{})
	require.NoError(t, err)
	assert.Equal(t, "not even json", draft)

	critique, err := NewAuditor(provider).Critique(context.Background(), draft, clinical.DefaultInstructions, "")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", critique)

	require.Len(t, provider.Prompts(), 2)
	assert.Contains(t, provider.Prompts()[1], "not even json")
}
