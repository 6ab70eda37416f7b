package service

import (
	"context"
	"encoding/json"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/internal/repository/specification"
	"clinical-intelligence-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
)

// SessionIndexer chunks, embeds and stores one session for later retrieval.
type SessionIndexer interface {
	Index(ctx context.Context, orgId, clientId, sessionId, text string) (int, error)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns saved sessions into retrievable history.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	cipher     FieldCipher
	indexer    SessionIndexer
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	cipher FieldCipher,
	indexer SessionIndexer,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		cipher:     cipher,
		indexer:    indexer,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks jobs that can never succeed and nacks transient failures.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedSessionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Invalid embedding job", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	details := map[string]interface{}{
		"record_id":  payload.RecordId.String(),
		"session_id": payload.SessionId,
		"client_id":  payload.ClientId,
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.SessionRecordRepository().FindOne(ctx, specification.ByID{ID: payload.RecordId})
	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error("CONSUMER", "Failed to load session record", details)
		msg.Nack()
		return
	}
	if record == nil {
		cs.logger.Warn("CONSUMER", "Session record no longer exists", details)
		msg.Ack()
		return
	}

	text, err := cs.cipher.Decrypt(record.RawTextEncrypted)
	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error("CONSUMER", "Failed to decrypt session text", details)
		msg.Ack()
		return
	}

	n, err := cs.indexer.Index(ctx, record.OrganizationId, record.ClientId, record.SessionId, text)
	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error("CONSUMER", "Failed to index session", details)
		msg.Nack()
		return
	}

	details["chunks"] = n
	cs.logger.Info("CONSUMER", "Session indexed", details)
	msg.Ack()
}
