package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is a saved session. RawTextEncrypted and ResultEncrypted hold
// FieldCipher output; markers stay in the clear for reporting.
type SessionRecord struct {
	Id                 uuid.UUID
	OrganizationId     string
	ClientId           string
	SessionId          string
	RawTextEncrypted   string
	ResultEncrypted    string
	RiskLevel          string
	Degraded           bool
	PrimaryThemes      []string
	EmotionalIntensity float64
	GoalProgress       float64
	RiskScore          float64
	Metadata           map[string]interface{}
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}
