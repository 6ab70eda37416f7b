package service

import (
	"context"
	"time"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/pkg/logger"
)

type IAdminService interface {
	GetSystemLogs(ctx context.Context, page, limit int, level, module string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	logger logger.ILogger
}

func NewAdminService(log logger.ILogger) IAdminService {
	return &adminService{logger: log}
}

// logTimeLayout matches zapcore.ISO8601TimeEncoder.
const logTimeLayout = "2006-01-02T15:04:05.000Z0700"

func parseLogTime(s string) time.Time {
	if ts, err := time.Parse(logTimeLayout, s); err == nil {
		return ts
	}
	ts, _ := time.Parse(time.RFC3339, s)
	return ts
}

func toLogListResponse(l logger.LogEntry) dto.LogListResponse {
	ts := parseLogTime(l.Timestamp)
	return dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: ts,
	}
}

func (s *adminService) GetSystemLogs(_ context.Context, page, limit int, level, module string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	logs, err := s.logger.GetLogs(logger.LogQuery{
		Level:  level,
		Module: module,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		item := toLogListResponse(l)
		res = append(res, &item)
	}
	return res, nil
}

func (s *adminService) GetLogDetail(_ context.Context, logId string) (*dto.LogDetailResponse, error) {
	l, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, err
	}
	return &dto.LogDetailResponse{
		LogListResponse: toLogListResponse(*l),
		Details:         l.Details,
	}, nil
}
