// Package server assembles the fiber application: middleware, routes and
// the lifecycle around listen and shutdown.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"docstack/internal/config"
	"docstack/internal/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	logger *slog.Logger
	cfg    config.ServerConfig
	app    *fiber.App
}

func New(logger *slog.Logger, cfg config.ServerConfig, h *handler.Handler) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: cfg.Environment == "production",
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		)
		return err
	})

	app.Get("/healthz", h.Healthz)
	app.Get("/uploads/:key", h.ServeBlob)

	api := app.Group("/api")
	api.Get("/folders/accessible/:employeeId", h.AccessibleFolders)
	api.Delete("/folders/:id", h.DeleteFolder)
	api.Post("/files/upload", h.UploadFile)
	api.Get("/files/folder/:folderId", h.ListFolderFiles)
	api.Get("/files/:id/download", h.DownloadFile)
	api.Delete("/files/:id", h.DeleteFile)
	api.Get("/audit/:entityType/:entityId", h.AuditByEntity)
	api.Post("/employees", h.CreateEmployee)
	api.Get("/employees/:employeeId", h.GetEmployee)
	api.Get("/departments", h.ListDepartments)

	return &Server{logger: logger, cfg: cfg, app: app}
}

// App exposes the assembled application, used by tests to drive requests
// without a listener.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.app.ShutdownWithContext(ctx)
}
