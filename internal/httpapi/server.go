package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/antoniostano/claria/internal/assistant"
	"github.com/antoniostano/claria/internal/config"
	"github.com/antoniostano/claria/internal/conversation"
	"github.com/antoniostano/claria/internal/ics"
	"github.com/antoniostano/claria/internal/memory"
	"github.com/antoniostano/claria/internal/observability"
	"github.com/antoniostano/claria/internal/tasks"
)

const (
	userKeyHeader = "X-User-Key"
	genericError  = "Ocurrió un error al procesar tu mensaje. Intenta de nuevo."
)

// Assistant runs one conversational turn for an owner.
type Assistant interface {
	HandleMessage(ctx context.Context, owner, text string) (assistant.Reply, error)
}

type Server struct {
	cfg           config.Config
	assistant     Assistant
	tasks         tasks.Store
	conversations conversation.Store
	history       memory.Store
	generator     *ics.Generator
	metrics       *observability.Metrics
	upgrader      websocket.Upgrader
}

type Options struct {
	Config        config.Config
	Assistant     Assistant
	Tasks         tasks.Store
	Conversations conversation.Store
	History       memory.Store
	Generator     *ics.Generator
	Metrics       *observability.Metrics
}

func New(opts Options) *Server {
	cfg := opts.Config
	generator := opts.Generator
	if generator == nil {
		generator = ics.NewGenerator(cfg.CalendarTimezone, cfg.CalendarEventDuration)
	}
	return &Server{
		cfg:           cfg,
		assistant:     opts.Assistant,
		tasks:         opts.Tasks,
		conversations: opts.Conversations,
		history:       opts.History,
		generator:     generator,
		metrics:       opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browsers may only open the chat channel from the serving origin
				// unless the operator allows any.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/stages", s.handlePerfStages)

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Delete("/v1/chat/history", s.handleResetChat)
	r.Get("/v1/tasks", s.handleListTasks)
	r.Delete("/v1/tasks/{id}", s.handleDeleteTask)
	r.Post("/v1/calendar/ics", s.handleCalendarICS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"conversation_backend": s.conversationBackend(),
		"task_store_mode":      s.taskStoreMode(),
	})
}

// handleReady pings both backing stores concurrently.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if s.tasks != nil {
		g.Go(func() error { return s.tasks.Ping(gctx) })
	}
	if s.conversations != nil {
		g.Go(func() error { return s.conversations.Ping(gctx) })
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("readiness check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":               "ready",
		"conversation_backend": s.conversationBackend(),
		"task_store_mode":      s.taskStoreMode(),
	})
}

type chatRequest struct {
	UserKey string `json:"user_key"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "assistant not configured")
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	owner := ownerKey(r, req.UserKey)
	reply, err := s.assistant.HandleMessage(r.Context(), owner, req.Message)
	if err != nil {
		status, code, message := turnError(err)
		respondError(w, status, code, message)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// handleResetChat drops the owner's pending draft and chat history. Stored
// tasks are kept.
func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.Header.Get(userKeyHeader))
	if owner == "" {
		owner = strings.TrimSpace(r.URL.Query().Get("user_key"))
	}
	if owner == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user key is required")
		return
	}
	if s.conversations != nil {
		if err := s.conversations.Clear(r.Context(), owner); err != nil {
			log.WithError(err).Error("clear conversation failed")
			respondError(w, http.StatusInternalServerError, "reset_failed", genericError)
			return
		}
	}
	if s.history != nil {
		if err := s.history.Forget(r.Context(), owner); err != nil {
			log.WithError(err).Error("forget chat history failed")
			respondError(w, http.StatusInternalServerError, "reset_failed", genericError)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// turnError maps a turn failure onto an HTTP answer. Internal error text is
// never echoed back.
func turnError(err error) (int, string, string) {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		return http.StatusBadRequest, "invalid_request", "message is required"
	case errors.Is(err, conversation.ErrEmptyKey):
		return http.StatusBadRequest, "invalid_request", "user key is required"
	default:
		return http.StatusInternalServerError, "turn_failed", genericError
	}
}

// ownerKey resolves the conversation owner: the X-User-Key header, then the
// explicit key, then the caller's address.
func ownerKey(r *http.Request, explicit string) string {
	if key := strings.TrimSpace(r.Header.Get(userKeyHeader)); key != "" {
		return key
	}
	if key := strings.TrimSpace(explicit); key != "" {
		return key
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func (s *Server) taskStoreMode() string {
	switch s.tasks.(type) {
	case nil:
		return "disabled"
	case *tasks.PostgresStore:
		return "postgres"
	default:
		return "in-memory"
	}
}

func (s *Server) conversationBackend() string {
	switch s.conversations.(type) {
	case nil:
		return "disabled"
	case *conversation.RedisStore:
		return "redis"
	default:
		return "memory"
	}
}
