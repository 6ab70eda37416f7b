package factory

import (
	"context"
	"fmt"
	"time"

	"clinical-intelligence-be/pkg/llm"
	"clinical-intelligence-be/pkg/llm/gemini"
	"clinical-intelligence-be/pkg/llm/huggingface"
	"clinical-intelligence-be/pkg/llm/ollama"
)

type ProviderConfig struct {
	Provider string // "ollama", "gemini" or "huggingface"
	Model    string
	BaseURL  string // ollama or OpenAI-compatible router base URL
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		return ollama.NewOllamaProvider(baseURL, model, cfg.Timeout), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "huggingface":
		if cfg.Model == "" {
			return nil, fmt.Errorf("huggingface provider requires a model")
		}
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
