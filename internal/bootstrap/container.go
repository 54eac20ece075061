package bootstrap

import (
	"time"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/config"
	"bigsis-chat/internal/controller"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/repository/memory"
	"bigsis-chat/internal/service"
	"bigsis-chat/pkg/brain"
	"bigsis-chat/pkg/conversation"
	"bigsis-chat/pkg/events"

	pktNats "bigsis-chat/pkg/nats"
)

// ChatContainer wires the conversational client.
type ChatContainer struct {
	Logger   *logger.ZapLogger
	Bus      *events.Bus
	Sessions *auth.TokenProvider
	Store    *conversation.Store

	ChatService       service.IChatbotService
	DiagnosticService service.IDiagnosticService

	natsPub *pktNats.Publisher
}

func NewChatContainer(cfg *config.Config, opts ...service.ChatOption) *ChatContainer {
	// 1. Core Facades
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath, cfg.App.Debug)

	// 2. Event Bus (NATS mirror is optional)
	var mirrors []events.Publisher
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(logger.ModuleEvents, "Failed to connect to NATS Publisher", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsPub = pub
			mirrors = append(mirrors, pub)
		}
	}
	bus := events.NewBus(sysLogger, mirrors...)

	// 3. Conversation
	storeOpts := []conversation.Option{
		conversation.WithZone(cfg.Brain.Zone),
		conversation.WithViolationFunc(func(err error) {
			sysLogger.Warn(logger.ModuleChat, "Ignored conversation logic error", map[string]interface{}{
				"error": err.Error(),
			})
		}),
	}
	if cfg.App.Strict {
		storeOpts = append(storeOpts, conversation.WithStrictFinalize())
	}
	store := conversation.NewStore(storeOpts...)

	// 4. Services
	sessions := auth.NewTokenProvider(cfg.Auth.AccessToken)
	brainClient := brain.NewClient(cfg.Brain.BaseURL, cfg.Brain.RequestTimeout)

	chatService := service.NewChatbotService(store, brainClient, sessions, bus, sysLogger, cfg.Brain.Language, opts...)
	diagnosticService := service.NewDiagnosticService(store, brainClient, sessions, bus, sysLogger, cfg.Brain.LoginURL)

	return &ChatContainer{
		Logger:            sysLogger,
		Bus:               bus,
		Sessions:          sessions,
		Store:             store,
		ChatService:       chatService,
		DiagnosticService: diagnosticService,
		natsPub:           natsPub,
	}
}

func (c *ChatContainer) Close() {
	_ = c.Bus.Close()
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.Logger.Sync()
}

// StubContainer wires the local backend.
type StubContainer struct {
	Logger *logger.ZapLogger

	ChatbotController    controller.IChatbotController
	DiagnosticController controller.IDiagnosticController
}

// NewStubContainer builds the stub backend. delay is slept between streamed
// events.
func NewStubContainer(cfg *config.Config, sysLogger *logger.ZapLogger, delay time.Duration) *StubContainer {
	diagnosticRepo := memory.NewDiagnosticRepository(24 * time.Hour)

	brainService := service.NewStubBrainService(sysLogger)
	diagnosticService := service.NewStubDiagnosticService(diagnosticRepo, sysLogger)

	return &StubContainer{
		Logger:               sysLogger,
		ChatbotController:    controller.NewChatbotController(brainService, sysLogger, delay),
		DiagnosticController: controller.NewDiagnosticController(diagnosticService, cfg.Stub.JwtSecret),
	}
}
