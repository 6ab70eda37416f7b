// Package mock provides a deterministic LLMProvider for tests and offline runs.
package mock

import (
	"context"
	"strings"
	"sync"

	"clinical-intelligence-be/pkg/llm"
)

// Rule answers every prompt containing Match with Reply, or fails with Err.
type Rule struct {
	Match string
	Reply string
	Err   error
}

// ScriptedProvider answers prompts from a fixed list of rules, first match wins.
// Prompts that match no rule get Fallback.
type ScriptedProvider struct {
	Rules    []Rule
	Fallback string

	mu      sync.Mutex
	prompts []string
}

var _ llm.LLMProvider = &ScriptedProvider{}

func NewScriptedProvider(rules ...Rule) *ScriptedProvider {
	return &ScriptedProvider{Rules: rules}
}

func (p *ScriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return p.Generate(ctx, sb.String(), opts...)
}

func (p *ScriptedProvider) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range p.Rules {
		if strings.Contains(prompt, r.Match) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}
	return p.Fallback, nil
}

// Prompts returns every prompt seen so far, in call order.
func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

// PromptsContaining returns the prompts that contain s.
func (p *ScriptedProvider) PromptsContaining(s string) []string {
	var out []string
	for _, prompt := range p.Prompts() {
		if strings.Contains(prompt, s) {
			out = append(out, prompt)
		}
	}
	return out
}

// BlockingProvider waits until the context is done, for timeout and cancellation tests.
type BlockingProvider struct{}

var _ llm.LLMProvider = BlockingProvider{}

func (BlockingProvider) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (b BlockingProvider) Generate(ctx context.Context, _ string, opts ...llm.Option) (string, error) {
	return b.Chat(ctx, nil, opts...)
}
