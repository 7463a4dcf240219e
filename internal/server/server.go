// Package server exposes the render pipeline and the job manager over HTTP.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/archive"
	"github.com/alnah/go-javaprint/internal/assets"
	"github.com/alnah/go-javaprint/internal/jobs"
)

// Client-facing messages.
const (
	msgBusy         = "Server is busy. Please try again later."
	msgInternal     = "Internal server error."
	msgShuttingDown = "Server is shutting down."
	msgZipRequired  = "Zip file is required."
	msgOneZip       = "Only one zip file is allowed."
	msgJobNotFound  = "Job not found."
	msgJobNotReady  = "Job is not finished yet."
)

const (
	accessLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"
	bodyLimitSlack  = 1 << 20
)

// Config wires a Server.
type Config struct {
	Runner     jobs.Runner // direct renders
	Manager    *jobs.Manager
	Catalog    *assets.Catalog
	Limits     archive.Limits
	TempPrefix string
	Production bool          // disables CORS
	Logger     *log.Logger   // service events; nil discards
	AccessLog  io.Writer     // request log; nil means stdout
	Heartbeat  time.Duration // SSE comment and websocket ping interval
}

// Server is the HTTP boundary.
type Server struct {
	app     *fiber.App
	run     jobs.Runner
	manager *jobs.Manager
	catalog *assets.Catalog
	limits  archive.Limits
	prefix  string
	logger  *log.Logger
	beat    time.Duration
}

const defaultHeartbeat = 15 * time.Second

// New builds the fiber app and registers every route.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stdout
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	zipLimit := cfg.Limits.MaxZipBytes
	if zipLimit <= 0 {
		zipLimit = archive.DefaultMaxZipBytes
	}

	s := &Server{
		run:     cfg.Runner,
		manager: cfg.Manager,
		catalog: cfg.Catalog,
		limits:  cfg.Limits,
		prefix:  cfg.TempPrefix,
		logger:  cfg.Logger,
		beat:    cfg.Heartbeat,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "javaprint",
		ErrorHandler:          s.handleError,
		BodyLimit:             int(zipLimit + bodyLimitSlack),
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: accessLogFormat,
		Output: cfg.AccessLog,
	}))
	if !cfg.Production {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:  "*",
			AllowMethods:  "GET,POST,OPTIONS",
			AllowHeaders:  "Origin,Content-Type,Accept",
			ExposeHeaders: "Content-Disposition",
		}))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/options", s.handleOptions)
	api.Post("/render", s.handleRender)

	render := api.Group("/render")
	render.Post("/start", s.handleStart)
	render.Get("/status/:jobId", s.handleStatus)
	render.Get("/progress/:jobId", s.handleProgress)
	render.Get("/download/:jobId", s.handleDownload)

	render.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	render.Get("/ws/:jobId", s.requireJob, websocket.New(s.handleWebSocket))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits up to timeout for open
// requests to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// handleError answers every failure with {"error": message}. Only user
// errors and known job states reveal a specific message.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, message := http.StatusInternalServerError, msgInternal

	var fe *fiber.Error
	if ue, ok := javaprint.AsUserError(err); ok {
		status, message = ue.Status, ue.Message
	} else {
		switch {
		case errors.Is(err, jobs.ErrCapacity):
			status, message = http.StatusTooManyRequests, msgBusy
		case errors.Is(err, jobs.ErrClosed):
			status, message = http.StatusServiceUnavailable, msgShuttingDown
		case errors.Is(err, jobs.ErrNotFound):
			status, message = http.StatusNotFound, msgJobNotFound
		case errors.Is(err, jobs.ErrNotReady):
			status, message = http.StatusConflict, msgJobNotReady
		case errors.As(err, &fe):
			status, message = fe.Code, fe.Message
		default:
			s.logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
		}
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}
