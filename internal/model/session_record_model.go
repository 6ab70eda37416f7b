package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionRecord struct {
	Id                 uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId     string                      `gorm:"type:varchar(128);not null;index:idx_session_records_scope"`
	ClientId           string                      `gorm:"type:varchar(128);not null;index:idx_session_records_scope"`
	SessionId          string                      `gorm:"type:varchar(128);not null;index"`
	RawTextEncrypted   string                      `gorm:"type:text;not null"`
	ResultEncrypted    string                      `gorm:"type:text;not null"`
	RiskLevel          string                      `gorm:"type:varchar(16)"`
	Degraded           bool                        `gorm:"default:false"`
	PrimaryThemes      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	EmotionalIntensity float64
	GoalProgress       float64
	RiskScore          float64 `gorm:"index"`
	Metadata           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}
