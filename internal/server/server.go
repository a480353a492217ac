// Package server exposes enrollment and the assistant relay over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/toolcall"
)

// Enroller maps a student name to a thread.
type Enroller interface {
	Enroll(ctx context.Context, name string) (*students.Enrollment, error)
}

// Assistants is the remote API surface the handlers call directly.
type Assistants interface {
	CreateThread(ctx context.Context) (string, error)
	FileContent(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

// AssistantCreator creates tutor assistants.
type AssistantCreator interface {
	Create(ctx context.Context) (string, error)
}

// Streamer relays runs as event streams.
type Streamer interface {
	Send(ctx context.Context, threadID, text string) <-chan assistant.Event
	Resume(ctx context.Context, threadID, runID string, outputs []toolcall.Output) <-chan assistant.Event
}

// Deps are the services the HTTP API is built on.
type Deps struct {
	Students   Enroller
	Assistants Assistants
	Creator    AssistantCreator
	Relay      Streamer
	Logger     *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	router *gin.Engine
	addr   string
	server *http.Server
	logger *slog.Logger
}

// New builds the router. addr is used by Start.
func New(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(Recovery(logger), RequestID(), AccessLog(logger))

	h := &handler{deps: deps, logger: logger}

	api := router.Group("/api")
	{
		api.POST("/students", h.enroll)
		api.GET("/files/:fileId", h.file)

		assistants := api.Group("/assistants")
		{
			assistants.POST("", h.createAssistant)
			assistants.POST("/threads", h.createThread)
			assistants.POST("/threads/:threadId/messages", h.sendMessage)
			assistants.POST("/threads/:threadId/actions", h.submitActions)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		router: router,
		addr:   addr,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router for use in tests or other servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for open streams.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
