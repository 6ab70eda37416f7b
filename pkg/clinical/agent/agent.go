// Package agent holds the generation boundaries of the pipeline. Agents build a prompt,
// call the backend once and hand back the raw text; parsing happens downstream.
package agent

import (
	"context"

	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/llm"
)

// Scribe drafts a structured note from raw session text.
type Scribe struct {
	provider llm.LLMProvider
	opts     []llm.Option
}

func NewScribe(provider llm.LLMProvider, opts ...llm.Option) *Scribe {
	return &Scribe{
		provider: provider,
		opts:     append([]llm.Option{llm.WithJSONMode()}, opts...),
	}
}

func (s *Scribe) Draft(ctx context.Context, rawText, historyText string, org clinical.OrgContext) (string, error) {
	prompt := ScribePrompt{
		RawText:     rawText,
		HistoryText: historyText,
		Org:         org,
	}.Build()
	return s.provider.Generate(ctx, prompt, s.opts...)
}

// Auditor critiques a draft as a liability-focused clinical reviewer.
type Auditor struct {
	provider llm.LLMProvider
	opts     []llm.Option
}

func NewAuditor(provider llm.LLMProvider, opts ...llm.Option) *Auditor {
	return &Auditor{
		provider: provider,
		opts:     append([]llm.Option{llm.WithJSONMode()}, opts...),
	}
}

func (a *Auditor) Critique(ctx context.Context, draftRaw, instructions, policyContext string) (string, error) {
	prompt := AuditPrompt{
		DraftRaw:      draftRaw,
		Instructions:  instructions,
		PolicyContext: policyContext,
	}.Build()
	return a.provider.Generate(ctx, prompt, a.opts...)
}
