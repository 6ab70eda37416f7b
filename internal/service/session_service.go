package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/internal/repository/specification"
	"clinical-intelligence-be/internal/repository/unitofwork"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/events"

	"github.com/google/uuid"
)

// SessionProcessor runs the clinical pipeline for one session.
type SessionProcessor interface {
	Process(ctx context.Context, s clinical.Session) (*clinical.PipelineResult, error)
}

// FieldCipher encrypts session fields at rest.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type ISessionService interface {
	Process(ctx context.Context, req *dto.ProcessSessionRequest) (*clinical.PipelineResult, error)
	Save(ctx context.Context, req *dto.SaveSessionRequest) (*dto.SaveSessionResponse, error)
	GetHistory(ctx context.Context, orgId, clientId string, page, limit int) ([]*dto.HistoricalSessionResponse, error)
}

type sessionService struct {
	processor        SessionProcessor
	uowFactory       unitofwork.RepositoryFactory
	cipher           FieldCipher
	publisherService IPublisherService
	eventPublisher   events.Publisher
	logger           logger.ILogger
	auditLogger      logger.ILogger
}

func NewSessionService(
	processor SessionProcessor,
	uowFactory unitofwork.RepositoryFactory,
	cipher FieldCipher,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
	auditLog logger.ILogger,
) ISessionService {
	return &sessionService{
		processor:        processor,
		uowFactory:       uowFactory,
		cipher:           cipher,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		auditLogger:      auditLog,
	}
}

// IsHighRisk reports whether a result warrants an alert: an audited High risk level
// or an extracted risk score of at least clinical.HighRiskScore.
func IsHighRisk(result *clinical.PipelineResult) bool {
	if result.RiskLevel() == clinical.RiskHigh {
		return true
	}
	return !result.Markers.IsSentinel() && result.Markers.RiskScore >= clinical.HighRiskScore
}

func (s *sessionService) Process(ctx context.Context, req *dto.ProcessSessionRequest) (*clinical.PipelineResult, error) {
	session := clinical.Session{
		OrganizationId: req.OrganizationId,
		ClientId:       req.ClientId,
		RawText:        req.RawText,
	}

	result, err := s.processor.Process(ctx, session)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Info("AUDIT", "Session processed", map[string]interface{}{
		"org_id":     req.OrganizationId,
		"client_id":  req.ClientId,
		"degraded":   result.IsDegraded(),
		"risk_level": string(result.RiskLevel()),
		"risk_score": result.Markers.RiskScore,
	})

	s.publish(ctx, events.NewSessionProcessedEvent(req.OrganizationId, req.ClientId, result.IsDegraded(), string(result.RiskLevel())))
	if IsHighRisk(result) {
		s.publish(ctx, events.NewSessionHighRiskEvent(req.OrganizationId, req.ClientId, string(result.RiskLevel()), result.Markers.RiskScore))
	}
	return result, nil
}

// publish is best effort; the session result never depends on the bus.
func (s *sessionService) publish(ctx context.Context, event events.Event) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("SESSION", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

// savedResult is the subset of a serialized PipelineResult kept in plain columns.
type savedResult struct {
	Audit *struct {
		RiskLevel string `json:"risk_level"`
	} `json:"audit"`
	Error string `json:"error"`
}

func (s *sessionService) Save(ctx context.Context, req *dto.SaveSessionRequest) (*dto.SaveSessionResponse, error) {
	var summary savedResult
	if err := json.Unmarshal([]byte(req.StructuredJSON), &summary); err != nil {
		return nil, fmt.Errorf("structured_json is not valid JSON: %w", err)
	}

	encText, err := s.cipher.Encrypt(req.Text)
	if err != nil {
		return nil, fmt.Errorf("encrypt session text: %w", err)
	}
	encResult, err := s.cipher.Encrypt(req.StructuredJSON)
	if err != nil {
		return nil, fmt.Errorf("encrypt structured result: %w", err)
	}

	sessionId := strings.TrimSpace(req.SessionId)
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	record := &entity.SessionRecord{
		Id:               uuid.New(),
		OrganizationId:   req.OrganizationId,
		ClientId:         req.ClientId,
		SessionId:        sessionId,
		RawTextEncrypted: encText,
		ResultEncrypted:  encResult,
		Degraded:         summary.Error != "",
		Metadata:         req.Metadata,
		CreatedAt:        time.Now(),
	}
	if summary.Audit != nil {
		record.RiskLevel = summary.Audit.RiskLevel
	}
	if m := req.Markers; m != nil {
		record.PrimaryThemes = m.PrimaryThemes
		record.EmotionalIntensity = m.EmotionalIntensity
		record.GoalProgress = m.GoalProgress
		record.RiskScore = m.RiskScore
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRecordRepository().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("save session record: %w", err)
	}

	job, err := json.Marshal(dto.PublishEmbedSessionMessage{
		RecordId:       record.Id,
		OrganizationId: record.OrganizationId,
		ClientId:       record.ClientId,
		SessionId:      record.SessionId,
	})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, job); err != nil {
		// The record is the system of truth; indexing can be replayed.
		s.logger.Error("SESSION", "Failed to queue session indexing", map[string]interface{}{
			"record_id": record.Id.String(),
			"error":     err.Error(),
		})
	}

	s.auditLogger.Info("AUDIT", "Session saved", map[string]interface{}{
		"record_id":  record.Id.String(),
		"org_id":     record.OrganizationId,
		"client_id":  record.ClientId,
		"session_id": record.SessionId,
	})

	return &dto.SaveSessionResponse{Status: "saved", Id: record.Id, SessionId: record.SessionId}, nil
}

func (s *sessionService) GetHistory(ctx context.Context, orgId, clientId string, page, limit int) ([]*dto.HistoricalSessionResponse, error) {
	if strings.TrimSpace(orgId) == "" || strings.TrimSpace(clientId) == "" {
		return nil, fmt.Errorf("org_id and client_id are required")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	specs := append(specification.ClientSessions(orgId, clientId),
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit})

	records, err := s.uowFactory.NewUnitOfWork(ctx).SessionRecordRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	history := make([]*dto.HistoricalSessionResponse, 0, len(records))
	for _, rec := range records {
		text, err := s.cipher.Decrypt(rec.RawTextEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt session %s: %w", rec.Id, err)
		}
		structured, err := s.cipher.Decrypt(rec.ResultEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt session %s: %w", rec.Id, err)
		}

		themes := rec.PrimaryThemes
		if themes == nil {
			themes = []string{}
		}
		history = append(history, &dto.HistoricalSessionResponse{
			Id:             rec.Id,
			SessionId:      rec.SessionId,
			CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
			Text:           text,
			StructuredJSON: structured,
			RiskLevel:      rec.RiskLevel,
			Degraded:       rec.Degraded,
			Markers: dto.MarkersDTO{
				PrimaryThemes:      themes,
				EmotionalIntensity: rec.EmotionalIntensity,
				GoalProgress:       rec.GoalProgress,
				RiskScore:          rec.RiskScore,
			},
		})
	}
	return history, nil
}
