package mapper

import (
	"encoding/json"
	"time"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/model"

	"gorm.io/datatypes"
)

type SessionRecordMapper struct{}

func NewSessionRecordMapper() *SessionRecordMapper {
	return &SessionRecordMapper{}
}

func (m *SessionRecordMapper) ToEntity(r *model.SessionRecord) *entity.SessionRecord {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(r.Metadata) > 0 {
		// Metadata is written by ToModel only; a decode failure leaves it empty.
		_ = json.Unmarshal(r.Metadata, &metadata)
	}

	return &entity.SessionRecord{
		Id:                 r.Id,
		OrganizationId:     r.OrganizationId,
		ClientId:           r.ClientId,
		SessionId:          r.SessionId,
		RawTextEncrypted:   r.RawTextEncrypted,
		ResultEncrypted:    r.ResultEncrypted,
		RiskLevel:          r.RiskLevel,
		Degraded:           r.Degraded,
		PrimaryThemes:      []string(r.PrimaryThemes),
		EmotionalIntensity: r.EmotionalIntensity,
		GoalProgress:       r.GoalProgress,
		RiskScore:          r.RiskScore,
		Metadata:           metadata,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *SessionRecordMapper) ToModel(e *entity.SessionRecord) *model.SessionRecord {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var metadata datatypes.JSON
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metadata = datatypes.JSON(b)
		}
	}

	return &model.SessionRecord{
		Id:                 e.Id,
		OrganizationId:     e.OrganizationId,
		ClientId:           e.ClientId,
		SessionId:          e.SessionId,
		RawTextEncrypted:   e.RawTextEncrypted,
		ResultEncrypted:    e.ResultEncrypted,
		RiskLevel:          e.RiskLevel,
		Degraded:           e.Degraded,
		PrimaryThemes:      datatypes.JSONSlice[string](e.PrimaryThemes),
		EmotionalIntensity: e.EmotionalIntensity,
		GoalProgress:       e.GoalProgress,
		RiskScore:          e.RiskScore,
		Metadata:           metadata,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *SessionRecordMapper) ToEntities(records []*model.SessionRecord) []*entity.SessionRecord {
	entities := make([]*entity.SessionRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
