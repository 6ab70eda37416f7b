package mapper

import (
	"testing"
	"time"

	"clinical-intelligence-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecordMapper(t *testing.T) {
	m := NewSessionRecordMapper()
	now := time.Now().UTC()

	in := &entity.SessionRecord{
		Id:                 uuid.New(),
		OrganizationId:     "org-a",
		ClientId:           "client-1",
		SessionId:          "s-1",
		RawTextEncrypted:   "cipher-raw",
		ResultEncrypted:    "cipher-result",
		RiskLevel:          "High",
		PrimaryThemes:      []string{"sleep", "work"},
		EmotionalIntensity: 7,
		GoalProgress:       3,
		RiskScore:          8,
		Metadata:           map[string]interface{}{"source": "api"},
		CreatedAt:          now,
	}

	out := m.ToEntity(m.ToModel(in))
	require.NotNil(t, out)
	assert.Equal(t, in.Id, out.Id)
	assert.Equal(t, in.PrimaryThemes, out.PrimaryThemes)
	assert.Equal(t, "api", out.Metadata["source"])
	assert.Nil(t, out.UpdatedAt)
	assert.Nil(t, m.ToEntity(nil))
}

func TestSessionEmbeddingMapper(t *testing.T) {
	m := NewSessionEmbeddingMapper()
	in := &entity.SessionEmbedding{
		OrganizationId: "org-a",
		ClientId:       "client-1",
		SessionId:      "s-1",
		Document:       "chunk",
		EmbeddingValue: []float32{0.1, 0.2},
		ChunkIndex:     2,
	}

	out := m.ToEntities(m.ToModels([]*entity.SessionEmbedding{in}))
	require.Len(t, out, 1)
	assert.Equal(t, in.EmbeddingValue, out[0].EmbeddingValue)
	assert.Equal(t, in.SessionId, out[0].SessionId)
	assert.Equal(t, 2, out[0].ChunkIndex)
}
