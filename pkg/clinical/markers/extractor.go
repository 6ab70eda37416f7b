package markers

import (
	"context"
	"strings"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/llm"
)

const AnalystHeader = "AGENT: CLINICAL ANALYST"

const module = "MARKERS"

// Extractor derives session markers from a draft. It never fails: any generation,
// parse or validation problem yields clinical.SentinelMarkers().
type Extractor struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	opts     []llm.Option
}

func NewExtractor(provider llm.LLMProvider, log logger.ILogger, opts ...llm.Option) *Extractor {
	return &Extractor{
		provider: provider,
		logger:   log,
		opts:     append([]llm.Option{llm.WithJSONMode()}, opts...),
	}
}

func BuildPrompt(draftRaw string) string {
	var prompt strings.Builder
	prompt.WriteString(AnalystHeader + "\n")
	prompt.WriteString("TASK: Extract quantitative markers from this clinical note.\n\n")
	prompt.WriteString("<note>\n")
	prompt.WriteString(draftRaw)
	prompt.WriteString("\n</note>\n\n")
	prompt.WriteString("Return ONLY a JSON object with exactly four fields:\n")
	prompt.WriteString("- primary_themes: list of the top 3 clinical themes\n")
	prompt.WriteString("- emotional_intensity: number from 1 to 10\n")
	prompt.WriteString("- goal_progress: number from 1 to 10 on treatment plan alignment\n")
	prompt.WriteString("- risk_score: number from 1 to 10 based on safety markers\n\n")
	prompt.WriteString("JSON Output:")
	return prompt.String()
}

func (e *Extractor) Extract(ctx context.Context, draftRaw string) clinical.MarkerSet {
	raw, err := e.provider.Generate(ctx, BuildPrompt(draftRaw), e.opts...)
	if err != nil {
		e.logger.Warn(module, "Marker generation failed, using sentinel", map[string]interface{}{
			"error":   err.Error(),
			"timeout": clinical.IsTimeout(err),
		})
		return clinical.SentinelMarkers()
	}

	markers, err := clinical.ParseMarkers(raw)
	if err != nil {
		e.logger.Warn(module, "Marker output rejected, using sentinel", map[string]interface{}{
			"error": err.Error(),
		})
		return clinical.SentinelMarkers()
	}
	return *markers
}
