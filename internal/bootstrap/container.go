package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"clinical-intelligence-be/internal/config"
	"clinical-intelligence-be/internal/controller"
	"clinical-intelligence-be/internal/handler"
	"clinical-intelligence-be/internal/pkg/crypto"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/internal/service"
	internalWS "clinical-intelligence-be/internal/websocket"
	"clinical-intelligence-be/pkg/events"
	pktNats "clinical-intelligence-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	Core        *Core
	Logger      *logger.ZapLogger
	AuditLogger *logger.ZapLogger

	// Controllers
	SessionController controller.ISessionController
	OrgController     controller.IOrgController
	AdminController   controller.IAdminController
	AlertHandler      *handler.AlertHandler

	// Hub must be Run by the caller
	Hub *internalWS.Hub

	// Background services, started by cmd/rest
	ConsumerService service.IConsumerService
	AlertService    *service.AlertService // nil without NATS

	closers []func() error
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	core, err := NewCore(ctx, cfg, db, sysLogger)
	if err != nil {
		return nil, err
	}
	if core.Factory == nil {
		return nil, errors.New("the HTTP server requires a database for session records")
	}

	cipher, err := crypto.NewFieldCipherFromFile(cfg.Security.EncryptionKeyFile)
	if err != nil {
		return nil, fmt.Errorf("field cipher: %w", err)
	}

	c := &Container{
		Core:        core,
		Logger:      sysLogger,
		AuditLogger: auditLogger,
	}
	c.closers = append(c.closers, core.Close)

	// In-process job queue for session indexing
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)
	publisherService := service.NewPublisherService(cfg.App.EmbedTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.App.EmbedTopic,
		core.Factory,
		cipher,
		core.Retrieval,
		sysLogger,
	)

	c.Hub = internalWS.NewHub(core.Redis, sysLogger)
	c.AlertHandler = handler.NewAlertHandler(c.Hub, cfg.Security.JWTSecret, sysLogger)

	// Domain events
	var eventPublisher events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS publisher unavailable, events are dropped", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS subscriber unavailable, high-risk alerts are not recorded", map[string]interface{}{"error": err.Error()})
		} else {
			c.AlertService = service.NewAlertService(natsSub, c.Hub, auditLogger, sysLogger)
			c.closers = append(c.closers, func() error { natsSub.Close(); return nil })
		}
	}

	sessionService := service.NewSessionService(
		core.Coordinator,
		core.Factory,
		cipher,
		publisherService,
		eventPublisher,
		sysLogger,
		auditLogger,
	)
	knowledgeService := service.NewKnowledgeService(core.Orgs, core.KnowledgeBase, eventPublisher, sysLogger)
	adminService := service.NewAdminService(sysLogger)

	c.SessionController = controller.NewSessionController(sessionService)
	c.OrgController = controller.NewOrgController(knowledgeService)
	c.AdminController = controller.NewAdminController(adminService)

	return c, nil
}

// Close releases connections in reverse order of creation and flushes the loggers.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	_ = c.Logger.Sync()
	_ = c.AuditLogger.Sync()
	return errors.Join(errs...)
}
