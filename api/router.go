package api

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app/server"
)

// Server wraps the hertz server with the registered routes.
type Server struct {
	hertz *server.Hertz
}

// NewServer builds the HTTP server and registers the routes on addr.
func NewServer(addr string, handler *Handler) *Server {
	h := server.Default(server.WithHostPorts(addr))

	h.GET("/health", handler.Health)

	v1 := h.Group("/api/v1")
	v1.POST("/generate", handler.Generate)
	v1.POST("/validate", handler.Validate)
	v1.GET("/logs", handler.Logs)
	v1.GET("/logs/export", handler.ExportLogs)

	return &Server{hertz: h}
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	return s.hertz.Run()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hertz.Shutdown(ctx)
}
