package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

var collectionNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ChromaIndex stores each organization in its own Chroma collection and filters
// by client id inside it.
type ChromaIndex struct {
	client chromago.Client

	mu          sync.Mutex
	collections map[string]chromago.Collection
}

var _ VectorIndex = &ChromaIndex{}

func NewChromaIndex(baseURL string) (*ChromaIndex, error) {
	var opts []chromago.ClientOption
	if baseURL != "" {
		opts = append(opts, chromago.WithBaseURL(baseURL))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}
	return &ChromaIndex{
		client:      client,
		collections: make(map[string]chromago.Collection),
	}, nil
}

func CollectionName(orgId string) string {
	return "org_" + collectionNameUnsafe.ReplaceAllString(orgId, "_")
}

// ChunkID names a stored chunk. Session ids are only unique per client, so the client
// id is part of the key.
func ChunkID(clientId, sessionId string, chunkIndex int) chromago.DocumentID {
	return chromago.DocumentID(fmt.Sprintf("%s/%s-chunk%d", clientId, sessionId, chunkIndex))
}

func sessionFilter(clientId, sessionId string) chromago.WhereClause {
	return chromago.And(
		chromago.EqString("client_id", clientId),
		chromago.EqString("session_id", sessionId),
	)
}

func (c *ChromaIndex) collection(ctx context.Context, orgId string) (chromago.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.collections[orgId]; ok {
		return col, nil
	}
	col, err := c.client.GetOrCreateCollection(ctx, CollectionName(orgId),
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("org_id", orgId),
				chromago.NewStringAttribute("created_by", "clinical-intelligence-be"),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	c.collections[orgId] = col
	return col, nil
}

func (c *ChromaIndex) ReplaceSession(ctx context.Context, orgId, clientId, sessionId string, entries []Entry) error {
	if err := validScope(orgId, clientId); err != nil {
		return err
	}
	col, err := c.collection(ctx, orgId)
	if err != nil {
		return err
	}

	if err := col.Delete(ctx, chromago.WithWhereDelete(sessionFilter(clientId, sessionId))); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	for _, e := range entries {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("client_id", clientId),
			chromago.NewStringAttribute("session_id", sessionId),
			chromago.NewIntAttribute("chunk_num", int64(e.ChunkIndex)),
		)
		err := col.Add(ctx,
			chromago.WithIDs(ChunkID(clientId, sessionId, e.ChunkIndex)),
			chromago.WithTexts(e.Text),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(e.Vector)),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("add chunk %d: %w", e.ChunkIndex, err)
		}
	}
	return nil
}

func (c *ChromaIndex) Search(ctx context.Context, orgId, clientId string, vector []float32, limit int) ([]Entry, error) {
	if err := validScope(orgId, clientId); err != nil {
		return nil, err
	}
	col, err := c.collection(ctx, orgId)
	if err != nil {
		return nil, err
	}

	results, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(limit),
		chromago.WithWhereQuery(chromago.EqString("client_id", clientId)),
	)
	if err != nil {
		return nil, fmt.Errorf("query chroma: %w", err)
	}

	var entries []Entry
	groups := results.GetDocumentsGroups()
	if len(groups) == 0 {
		return entries, nil
	}
	for i, doc := range groups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			OrganizationId: orgId,
			ClientId:       clientId,
			ChunkIndex:     i,
			Text:           text,
		})
	}
	return entries, nil
}

func (c *ChromaIndex) Close() error {
	return c.client.Close()
}
