package service

import (
	"context"
	"fmt"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/clinical/orgconfig"
	"clinical-intelligence-be/pkg/events"
)

// IndexRebuilder forces a rebuild of an organization's knowledge base index.
type IndexRebuilder interface {
	Rebuild(ctx context.Context, orgId string) (int, error)
}

// OrgDirectory lists configured organizations.
type OrgDirectory interface {
	orgconfig.Provider
	List() ([]string, error)
}

type IKnowledgeService interface {
	ListOrganizations(ctx context.Context) ([]*dto.OrganizationResponse, error)
	SyncKnowledgeBase(ctx context.Context, orgId string) (*dto.SyncKnowledgeBaseResponse, error)
}

type knowledgeService struct {
	orgs           OrgDirectory
	rebuilder      IndexRebuilder
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewKnowledgeService(orgs OrgDirectory, rebuilder IndexRebuilder, eventPublisher events.Publisher, log logger.ILogger) IKnowledgeService {
	return &knowledgeService{
		orgs:           orgs,
		rebuilder:      rebuilder,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *knowledgeService) ListOrganizations(ctx context.Context) ([]*dto.OrganizationResponse, error) {
	ids, err := s.orgs.List()
	if err != nil {
		return nil, err
	}

	res := make([]*dto.OrganizationResponse, 0, len(ids))
	for _, id := range ids {
		org, err := orgconfig.Resolve(ctx, s.orgs, id, orgconfig.UnknownOrgDefault)
		if err != nil {
			// A malformed config should not hide the other organizations.
			s.logger.Warn("KNOWLEDGE", "Skipping organization with unreadable config", map[string]interface{}{
				"org_id": id,
				"error":  err.Error(),
			})
			continue
		}
		res = append(res, &dto.OrganizationResponse{
			Id:              id,
			PreferredSchema: org.Schema(),
			ToneConstraints: org.ToneConstraints,
			Instructions:    org.FreeTextInstructions,
		})
	}
	return res, nil
}

func (s *knowledgeService) SyncKnowledgeBase(ctx context.Context, orgId string) (*dto.SyncKnowledgeBaseResponse, error) {
	exists, err := s.orgs.Exists(ctx, orgId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", orgconfig.ErrUnknownOrganization, orgId)
	}

	n, err := s.rebuilder.Rebuild(ctx, orgId)
	if err != nil {
		return nil, fmt.Errorf("rebuild knowledge base: %w", err)
	}

	if err := s.eventPublisher.Publish(ctx, events.NewKnowledgeBaseSyncedEvent(orgId, n)); err != nil {
		s.logger.Warn("KNOWLEDGE", "Failed to publish sync event", map[string]interface{}{
			"org_id": orgId,
			"error":  err.Error(),
		})
	}

	return &dto.SyncKnowledgeBaseResponse{
		Status:         "Knowledge base indexed successfully",
		OrganizationId: orgId,
		Chunks:         n,
	}, nil
}
