// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout bounds the graceful shutdown after cancellation.
	ShutdownTimeout = 10 * time.Second

	// MaxRequestBodySize caps request bodies (64KB).
	MaxRequestBodySize = 64 * 1024

	// MaxContentLength is the longest message accepted, in bytes.
	MaxContentLength = 16 * 1024
)

// Version is the server version reported by /health.
var Version = "1.0.0"

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Addr string
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	Burst     int
	CORS      *CORSConfig
}

// Server is the chat backend HTTP API.
type Server struct {
	opts      Options
	storage   *Storage
	responder Responder
	limiter   *RateLimiter
	handler   http.Handler
	server    *http.Server
}

// New creates a server backed by storage. A nil responder uses
// CannedResponder.
func New(storage *Storage, responder Responder, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.CORS == nil {
		opts.CORS = DefaultCORSConfig()
	}
	if responder == nil {
		responder = CannedResponder{}
	}

	s := &Server{
		opts:      opts,
		storage:   storage,
		responder: responder,
		limiter:   NewRateLimiter(opts.RateLimit, opts.Burst),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(SecurityHeadersMiddleware)
	r.Use(CORSMiddleware(s.opts.CORS))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(BodyLimitMiddleware(MaxRequestBodySize))

		r.Post("/login", s.handleLogin)

		r.Route("/chats/{username}", func(r chi.Router) {
			r.Get("/", s.handleListChats)
			r.Post("/", s.handleCreateChat)
			r.Delete("/", s.handleDeleteAllChats)
			r.Delete("/{chatID}", s.handleDeleteChat)
			r.Post("/{chatID}/messages", s.handleSendMessage)
			r.Post("/{chatID}/actions", s.handleAction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

type loginBody struct {
	Username string `json:"username"`
}

type createChatBody struct {
	Title string `json:"title"`
}

// sendMessageBody accepts both the current and the web client's field name.
type sendMessageBody struct {
	Content string `json:"content"`
	Message string `json:"message"`
}

func (b sendMessageBody) text() string {
	if b.Content != "" {
		return b.Content
	}
	return b.Message
}

type actionBody struct {
	MessageID  string `json:"messageId"`
	ActionKind string `json:"actionKind"`
	Action     string `json:"action"`
}

func (b actionBody) kind() string {
	if b.ActionKind != "" {
		return b.ActionKind
	}
	return b.Action
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := HealthResponse{Status: "ok", Version: Version, Database: "ok"}
	if err := s.storage.db.PingContext(ctx); err != nil {
		health.Status = "degraded"
		health.Database = "unavailable"
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeJSON(w, r, &body) {
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if err := s.storage.EnsureUser(r.Context(), username); err != nil {
		s.internalError(w, r, err)
		return
	}
	chats, err := s.storage.ListChats(r.Context(), username)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{Username: username, Chats: chats})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.storage.ListChats(r.Context(), pathParam(r, "username"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var body createChatBody
	if !decodeJSON(w, r, &body) {
		return
	}
	chat, err := s.storage.CreateChat(r.Context(), pathParam(r, "username"), strings.TrimSpace(body.Title))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleDeleteAllChats(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteAllChats(r.Context(), pathParam(r, "username")); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Ack{Success: true})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	err := s.storage.DeleteChat(r.Context(), pathParam(r, "username"), pathParam(r, "chatID"))
	if errors.Is(err, ErrChatNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Ack{Success: true})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body sendMessageBody
	if !decodeJSON(w, r, &body) {
		return
	}
	content := strings.TrimSpace(body.text())
	if content == "" {
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}
	if len(content) > MaxContentLength {
		writeError(w, http.StatusBadRequest, "Message is too long")
		return
	}

	username, chatID := pathParam(r, "username"), pathParam(r, "chatID")
	reply := s.responder.Reply(content)
	user, ai, title, err := s.storage.AppendExchange(r.Context(), username, chatID, content, reply, model.SynthesizeTitle(content))
	if errors.Is(err, ErrChatNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, api.SendMessageResponse{
		UserMessage: user,
		AIResponse:  ai,
		ChatTitle:   title,
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var body actionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	kind, err := model.ParseActionKind(body.kind())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid action. Use shorten or expand.")
		return
	}
	if body.MessageID == "" {
		writeError(w, http.StatusBadRequest, "messageId is required")
		return
	}

	username, chatID := pathParam(r, "username"), pathParam(r, "chatID")
	msg, err := s.storage.Message(r.Context(), username, chatID, body.MessageID)
	switch {
	case errors.Is(err, ErrChatNotFound):
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	case errors.Is(err, ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "Message not found")
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}
	if msg.Sender != string(model.SenderAI) {
		writeError(w, http.StatusBadRequest, "Only AI messages can be rewritten")
		return
	}

	msg.Content = s.responder.Rewrite(kind, msg.Content)
	if err := s.storage.UpdateMessageContent(r.Context(), chatID, msg.ID, msg.Content); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ActionResponse{Message: msg})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	limiterCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.limiter.Run(limiterCtx)

	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srv := s.server

	logging.WithFields(logging.Fields{"addr": s.opts.Addr, "version": Version}).Info("server starting")
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer stop()
		logging.Infof("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	logging.Infof("server shutting down")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// pathParam returns a URL parameter, unescaped when the router matched on
// the raw path.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(v); err == nil {
			return unescaped
		}
	}
	return v
}

// decodeJSON reads the body into v, writing the error response itself when
// it fails. An empty body leaves v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid request format")
	return false
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithFields(logging.Fields{
		"request_id": chimiddleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
	}).Errorf("request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
