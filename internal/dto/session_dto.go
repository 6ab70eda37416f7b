package dto

import "github.com/google/uuid"

type ProcessSessionRequest struct {
	OrganizationId string `json:"org_id" validate:"required"`
	ClientId       string `json:"client_id" validate:"required"`
	RawText        string `json:"raw_text" validate:"required"`
}

type MarkersDTO struct {
	PrimaryThemes      []string `json:"primary_themes"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	GoalProgress       float64  `json:"goal_progress"`
	RiskScore          float64  `json:"risk_score"`
}

// SaveSessionRequest stores a reviewed session. StructuredJSON is the serialized
// pipeline result the clinician accepted. An empty SessionId is assigned on save.
type SaveSessionRequest struct {
	OrganizationId string                 `json:"org_id" validate:"required"`
	ClientId       string                 `json:"client_id" validate:"required"`
	SessionId      string                 `json:"session_id" validate:"omitempty,max=128"`
	Text           string                 `json:"text" validate:"required"`
	StructuredJSON string                 `json:"structured_json" validate:"required"`
	Metadata       map[string]interface{} `json:"metadata"`
	Markers        *MarkersDTO            `json:"markers"`
}

type SaveSessionResponse struct {
	Status    string    `json:"status"`
	Id        uuid.UUID `json:"id"`
	SessionId string    `json:"session_id"`
}

type HistoricalSessionResponse struct {
	Id             uuid.UUID  `json:"id"`
	SessionId      string     `json:"session_id"`
	CreatedAt      string     `json:"created_at"`
	Text           string     `json:"text"`
	StructuredJSON string     `json:"structured_json,omitempty"`
	RiskLevel      string     `json:"risk_level,omitempty"`
	Degraded       bool       `json:"degraded"`
	Markers        MarkersDTO `json:"markers"`
}

// PublishEmbedSessionMessage is the payload of an embedding job.
type PublishEmbedSessionMessage struct {
	RecordId       uuid.UUID `json:"record_id"`
	OrganizationId string    `json:"org_id"`
	ClientId       string    `json:"client_id"`
	SessionId      string    `json:"session_id"`
}
