// Package knowledge indexes each organization's policy documents and answers the
// standing documentation-requirements query used by the review stage.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/embedding"
	"clinical-intelligence-be/pkg/utils"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// PolicyQuery is issued once per review.
const PolicyQuery = "What are the documentation requirements and risk assessment protocols for this organization?"

const module = "KNOWLEDGE"

// Document is one source file of an organization's knowledge base.
type Document struct {
	Source string
	Text   string
}

// Chunk is one embedded slice of a document.
type Chunk struct {
	Source     string
	ChunkIndex int
	Text       string
	Vector     []float32
}

// DocumentLoader returns an organization's documents. A nil slice with a nil error
// means the organization has no document set.
type DocumentLoader interface {
	Load(ctx context.Context, orgId string) ([]Document, error)
}

// IndexStore persists per-organization indexes.
type IndexStore interface {
	HasIndex(ctx context.Context, orgId string) (bool, error)
	ReplaceIndex(ctx context.Context, orgId string, chunks []Chunk) error
	Search(ctx context.Context, orgId string, vector []float32, limit int) ([]Chunk, error)
}

type Config struct {
	TopK          int
	ChunkSize     int
	ChunkOverlap  int
	EmbedWorkers  int
	ReadyCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:          3,
		ChunkSize:     utils.PolicyChunkSize,
		ChunkOverlap:  utils.PolicyChunkOverlap,
		EmbedWorkers:  4,
		ReadyCacheTTL: 10 * time.Minute,
	}
}

type KnowledgeBase struct {
	loader   DocumentLoader
	store    IndexStore
	embedder embedding.EmbeddingProvider
	locker   Locker
	logger   logger.ILogger
	cfg      Config

	// ready remembers organizations whose index is known to exist, so a review does
	// not hit the store twice. Entries expire so external rebuilds are picked up.
	ready *cache.Cache
}

func NewKnowledgeBase(
	loader DocumentLoader,
	store IndexStore,
	embedder embedding.EmbeddingProvider,
	locker Locker,
	log logger.ILogger,
	cfg Config,
) *KnowledgeBase {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = def.EmbedWorkers
	}
	if cfg.ReadyCacheTTL <= 0 {
		cfg.ReadyCacheTTL = def.ReadyCacheTTL
	}
	if locker == nil {
		locker = NewLocalLocker()
	}

	return &KnowledgeBase{
		loader:   loader,
		store:    store,
		embedder: embedder,
		locker:   locker,
		logger:   log,
		cfg:      cfg,
		ready:    cache.New(cfg.ReadyCacheTTL, 2*cfg.ReadyCacheTTL),
	}
}

// GetPolicyContext answers PolicyQuery for the organization. ok is false when the
// organization has no documents; that is not an error.
func (kb *KnowledgeBase) GetPolicyContext(ctx context.Context, orgId string) (policy string, ok bool, err error) {
	indexed, err := kb.ensureIndex(ctx, orgId)
	if err != nil || !indexed {
		return "", false, err
	}

	res, err := kb.embedder.Generate(ctx, PolicyQuery, embedding.TaskRetrievalQuery)
	if err != nil {
		return "", false, fmt.Errorf("embed policy query: %w", err)
	}

	chunks, err := kb.store.Search(ctx, orgId, res.Embedding.Values, kb.cfg.TopK)
	if err != nil {
		return "", false, fmt.Errorf("search policy index: %w", err)
	}
	if len(chunks) == 0 {
		return "", false, nil
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = strings.TrimSpace(c.Text)
	}
	return strings.Join(parts, "\n\n"), true, nil
}

// Rebuild re-indexes the organization's documents unconditionally and returns the
// number of chunks written. An organization whose documents were all removed is left
// with an empty index. Concurrent rebuilds of one organization are serialized.
func (kb *KnowledgeBase) Rebuild(ctx context.Context, orgId string) (int, error) {
	unlock, err := kb.locker.Lock(ctx, orgId)
	if err != nil {
		return 0, err
	}
	defer unlock()

	kb.ready.Delete(orgId)
	n, err := kb.build(ctx, orgId)
	if err != nil || n > 0 {
		return n, err
	}
	if err := kb.store.ReplaceIndex(ctx, orgId, nil); err != nil {
		return 0, fmt.Errorf("clear policy index: %w", err)
	}
	kb.logger.Info(module, "Knowledge base cleared", map[string]interface{}{"org_id": orgId})
	return 0, nil
}

// ensureIndex builds the index on first use. The check is repeated under the
// organization lock so that racing callers build it once.
func (kb *KnowledgeBase) ensureIndex(ctx context.Context, orgId string) (bool, error) {
	if _, found := kb.ready.Get(orgId); found {
		return true, nil
	}

	has, err := kb.store.HasIndex(ctx, orgId)
	if err != nil {
		return false, fmt.Errorf("check policy index: %w", err)
	}
	if has {
		kb.ready.SetDefault(orgId, true)
		return true, nil
	}

	unlock, err := kb.locker.Lock(ctx, orgId)
	if err != nil {
		return false, err
	}
	defer unlock()

	has, err = kb.store.HasIndex(ctx, orgId)
	if err != nil {
		return false, fmt.Errorf("check policy index: %w", err)
	}
	if has {
		kb.ready.SetDefault(orgId, true)
		return true, nil
	}

	n, err := kb.build(ctx, orgId)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// build must be called with the organization lock held.
func (kb *KnowledgeBase) build(ctx context.Context, orgId string) (int, error) {
	docs, err := kb.loader.Load(ctx, orgId)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		kb.logger.Debug(module, "No knowledge base documents", map[string]interface{}{"org_id": orgId})
		return 0, nil
	}

	var chunks []Chunk
	for _, doc := range docs {
		texts, err := utils.SplitText(doc.Text, kb.cfg.ChunkSize, kb.cfg.ChunkOverlap)
		if err != nil {
			return 0, fmt.Errorf("split %s: %w", doc.Source, err)
		}
		for i, t := range texts {
			chunks = append(chunks, Chunk{Source: doc.Source, ChunkIndex: i, Text: t})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(kb.cfg.EmbedWorkers)
	for i := range chunks {
		g.Go(func() error {
			res, err := kb.embedder.Generate(gctx, chunks[i].Text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed %s chunk %d: %w", chunks[i].Source, chunks[i].ChunkIndex, err)
			}
			chunks[i].Vector = res.Embedding.Values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := kb.store.ReplaceIndex(ctx, orgId, chunks); err != nil {
		return 0, fmt.Errorf("persist policy index: %w", err)
	}
	kb.ready.SetDefault(orgId, true)

	kb.logger.Info(module, "Knowledge base indexed", map[string]interface{}{
		"org_id":    orgId,
		"documents": len(docs),
		"chunks":    len(chunks),
	})
	return len(chunks), nil
}
