// Package httpapi exposes the webhook ingress: Google Drive change
// notifications, WhatsApp gateway events, and a health check.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oasisprop/concierge/internal/core/ports/driving"
	"github.com/oasisprop/concierge/internal/logger"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string

	// SyncSecret authenticates document sync webhook calls.
	SyncSecret string
}

// Server routes webhook traffic to the core services.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	syncSecret string

	reindex  driving.ReindexTrigger
	messages driving.MessageProcessor
}

// NewServer creates the webhook server.
func NewServer(cfg Config, reindex driving.ReindexTrigger, messages driving.MessageProcessor) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		syncSecret: cfg.SyncSecret,
		reindex:    reindex,
		messages:   messages,
	}

	engine.POST("/webhook-google-sync", s.handleGoogleSync)
	engine.POST("/hook", s.handleInbound)
	engine.GET("/healthcheck", s.handleHealthcheck)

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// syncRequest is the document sync webhook payload, sent by the Apps
// Script trigger attached to the synced documents.
type syncRequest struct {
	DocumentID  string `json:"documentId"`
	SecretToken string `json:"secretToken"`
}

func (s *Server) handleGoogleSync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.DocumentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
		return
	}
	if s.syncSecret == "" {
		logger.Error("sync webhook called but no sync secret is configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync secret not configured"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.SecretToken), []byte(s.syncSecret)) != 1 {
		logger.Warn("sync webhook rejected: bad secret token for document %s", req.DocumentID)
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid secret token"})
		return
	}

	// Fire-and-forget: the notification is acknowledged even when the
	// worker pool is saturated and the job is dropped. Submit logs the
	// drop; the Apps Script caller gets no error channel either way.
	if err := s.reindex.Submit(c.Request.Context(), req.DocumentID); err != nil {
		logger.Warn("sync for document %s not queued: %v", req.DocumentID, err)
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sync queued"})
}

// inboundEvent is the WhatsApp gateway webhook payload.
type inboundEvent struct {
	Messages []inboundMessage `json:"messages"`
}

type inboundMessage struct {
	ID     string `json:"id"`
	FromMe bool   `json:"from_me"`
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
	From   string `json:"from"`
	Text   struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *Server) handleInbound(c *gin.Context) {
	var event inboundEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	for _, msg := range event.Messages {
		// Echoes of our own outbound messages come back with from_me set.
		if msg.FromMe {
			continue
		}
		if msg.Type != "text" || msg.Text.Body == "" {
			logger.Debug("ignoring non-text message %s of type %q", msg.ID, msg.Type)
			continue
		}

		conversationID := msg.ChatID
		if conversationID == "" {
			conversationID = msg.From
		}
		if conversationID == "" {
			logger.Warn("inbound message %s has no sender, skipping", msg.ID)
			continue
		}

		s.messages.HandleInbound(c.Request.Context(), conversationID, msg.Text.Body)
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (s *Server) handleHealthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
