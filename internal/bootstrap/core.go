package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinical-intelligence-be/internal/config"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/internal/repository/adapter"
	"clinical-intelligence-be/internal/repository/unitofwork"
	"clinical-intelligence-be/pkg/clinical/agent"
	"clinical-intelligence-be/pkg/clinical/knowledge"
	"clinical-intelligence-be/pkg/clinical/markers"
	"clinical-intelligence-be/pkg/clinical/orgconfig"
	"clinical-intelligence-be/pkg/clinical/pipeline"
	"clinical-intelligence-be/pkg/clinical/retrieval"
	"clinical-intelligence-be/pkg/embedding"
	"clinical-intelligence-be/pkg/llm"
	"clinical-intelligence-be/pkg/llm/factory"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Core holds the clinical pipeline and its collaborators. It is shared by the HTTP
// server and the CLI; nothing in it is global.
type Core struct {
	Coordinator   *pipeline.Coordinator
	KnowledgeBase *knowledge.KnowledgeBase
	Retrieval     *retrieval.Store
	Orgs          *orgconfig.FileProvider
	Factory       unitofwork.RepositoryFactory // nil without a database
	Redis         *redis.Client                // nil without REDIS_URL

	closers []func() error
}

// NewCore wires the pipeline from cfg. db may be nil when neither the retrieval
// store nor the knowledge index is "postgres".
func NewCore(ctx context.Context, cfg *config.Config, db *gorm.DB, log logger.ILogger) (*Core, error) {
	core := &Core{}
	if db != nil {
		core.Factory = unitofwork.NewRepositoryFactory(db)
	}

	provider, err := factory.NewLLMProvider(ctx, llmProviderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	embedder, err := newEmbeddingProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	if err := knowledge.SetPDFLicense(cfg.Knowledge.PDFLicenseKey); err != nil {
		log.Warn("BOOTSTRAP", "PDF license rejected, PDF policy documents will fail to load", map[string]interface{}{
			"error": err.Error(),
		})
	}

	core.connectRedis(ctx, cfg, log)

	policyIndex, err := core.newPolicyIndex(cfg)
	if err != nil {
		return nil, err
	}
	core.KnowledgeBase = knowledge.NewKnowledgeBase(
		knowledge.NewDirectoryLoader(cfg.Knowledge.DocumentsRoot),
		policyIndex,
		embedder,
		core.newLocker(cfg),
		log,
		knowledge.Config{TopK: cfg.Knowledge.TopK},
	)

	sessionIndex, err := core.newSessionIndex(cfg)
	if err != nil {
		return nil, err
	}
	core.Retrieval = retrieval.NewStore(embedder, sessionIndex)
	core.Orgs = orgconfig.NewFileProvider(cfg.Knowledge.OrgConfigRoot)

	policy, err := orgconfig.ParseUnknownOrgPolicy(cfg.Pipeline.UnknownOrgPolicy)
	if err != nil {
		return nil, err
	}

	genOpts := []llm.Option{llm.WithTemperature(0)}
	core.Coordinator, err = pipeline.NewCoordinator(pipeline.Dependencies{
		History:  core.Retrieval,
		Policy:   core.KnowledgeBase,
		Orgs:     core.Orgs,
		Drafter:  agent.NewScribe(provider, genOpts...),
		Reviewer: agent.NewAuditor(provider, genOpts...),
		Markers:  markers.NewExtractor(provider, log, genOpts...),
		Logger:   log,
	}, pipeline.Options{
		RequireHistory:   cfg.Pipeline.RequireHistory,
		HistoryLimit:     cfg.Pipeline.HistoryLimit,
		StageTimeout:     cfg.Pipeline.StageTimeout,
		UnknownOrgPolicy: policy,
	})
	if err != nil {
		return nil, err
	}
	return core, nil
}

func llmProviderConfig(cfg *config.Config) factory.ProviderConfig {
	pc := factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Ai.GeminiAPIKey,
		Timeout:  cfg.Ai.RequestTimeout,
	}
	if cfg.Ai.LLMProvider == "huggingface" {
		pc.BaseURL = cfg.Ai.HuggingFaceBaseURL
		pc.APIKey = cfg.Ai.HuggingFaceAPIKey
	}
	return pc
}

func newEmbeddingProvider(ctx context.Context, cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama", "":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel), nil
	case "gemini":
		return embedding.NewGeminiProvider(ctx, cfg.Ai.GeminiAPIKey, cfg.Ai.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
}

func (c *Core) newPolicyIndex(cfg *config.Config) (knowledge.IndexStore, error) {
	switch cfg.Knowledge.IndexStore {
	case "memory":
		return knowledge.NewMemoryIndex(), nil
	case "postgres", "":
		if c.Factory == nil {
			return nil, errors.New("knowledge index store postgres requires a database")
		}
		return adapter.NewPolicyIndex(c.Factory), nil
	default:
		return nil, fmt.Errorf("unsupported knowledge index store: %s", cfg.Knowledge.IndexStore)
	}
}

func (c *Core) newSessionIndex(cfg *config.Config) (retrieval.VectorIndex, error) {
	switch cfg.Retrieval.Store {
	case "memory":
		return retrieval.NewMemoryIndex(), nil
	case "chroma":
		idx, err := retrieval.NewChromaIndex(cfg.Retrieval.ChromaURL)
		if err != nil {
			return nil, fmt.Errorf("chroma: %w", err)
		}
		c.closers = append(c.closers, idx.Close)
		return idx, nil
	case "postgres", "":
		if c.Factory == nil {
			return nil, errors.New("retrieval store postgres requires a database")
		}
		return adapter.NewSessionIndex(c.Factory), nil
	default:
		return nil, fmt.Errorf("unsupported retrieval store: %s", cfg.Retrieval.Store)
	}
}

// connectRedis leaves c.Redis nil when REDIS_URL is unset or unreachable.
func (c *Core) connectRedis(ctx context.Context, cfg *config.Config, log logger.ILogger) {
	if cfg.App.RedisURL == "" {
		return
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Redis unreachable, locks and alerts stay within this process", map[string]interface{}{
			"error": err.Error(),
		})
		_ = rdb.Close()
		return
	}
	c.Redis = rdb
	c.closers = append(c.closers, rdb.Close)
}

func (c *Core) newLocker(cfg *config.Config) knowledge.Locker {
	if !cfg.Knowledge.RedisLock || c.Redis == nil {
		return knowledge.NewLocalLocker()
	}
	return knowledge.NewRedisLocker(c.Redis, 10*time.Minute)
}

func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
