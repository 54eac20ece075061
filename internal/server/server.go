package server

import (
	"net"

	"bigsis-chat/internal/bootstrap"
	"bigsis-chat/internal/config"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Server is the local stand-in for the diagnostic backend.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.StubContainer
}

func New(cfg *config.Config, container *bootstrap.StubContainer) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024, // 1MB
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Stub.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info(logger.ModuleStub, "Stub backend listening", map[string]interface{}{
		"url": "http://localhost:" + s.cfg.Stub.Port + "/api/v1",
	})
	return s.app.Listen(":" + s.cfg.Stub.Port)
}

// Serve runs the server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.StubContainer) {
	api := app.Group("/api/v1")

	c.ChatbotController.RegisterRoutes(api)
	c.DiagnosticController.RegisterRoutes(api)
}
