package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/facet/internal/chat"
	"github.com/kalambet/facet/internal/llm"
	"github.com/kalambet/facet/internal/profile"
	"github.com/kalambet/facet/internal/search"
	"github.com/kalambet/facet/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Profiles  *profile.Store
	Chat      *chat.Service
	Window    *chat.Window
	Exchanges *storage.Store // optional; exchange routes are absent when nil
	Token     string
	// RateLimitPerMinute enables the fixed-window limiter when > 0.
	RateLimitPerMinute int
}

// NewHandler builds the facet HTTP API. Everything under /api requires the
// bearer token; /health is open.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		if deps.RateLimitPerMinute > 0 {
			r.Use(RateLimit(deps.RateLimitPerMinute))
		}

		r.Post("/chat", handleChat(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handlePutProfile(deps))
		r.Get("/profile/{section}", handleGetSection(deps))
		r.Put("/profile/{section}", handlePutSection(deps))

		r.Post("/search", handleSearch(deps))

		r.Get("/context/sessions", handleListSessions(deps))
		r.Get("/context/{sessionID}", handleGetContext(deps))
		r.Delete("/context/{sessionID}", handleClearContext(deps))

		if deps.Exchanges != nil {
			r.Get("/exchanges", handleListExchanges(deps))
			r.Get("/exchanges/{id}", handleGetExchange(deps))
			r.Delete("/exchanges/{id}", handleDeleteExchange(deps))
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// --- Chat ---

type chatRequest struct {
	Message                string `json:"message"`
	SessionID              string `json:"sessionId"`
	IncludePersonalContext *bool  `json:"includePersonalContext"`
}

type chatResponse struct {
	Response         string `json:"response"`
	SessionID        string `json:"sessionId"`
	PersonalDataUsed bool   `json:"personalDataUsed"`
	ContextLength    int    `json:"contextLength"`
	IsDemo           bool   `json:"isDemo"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		includeContext := true
		if req.IncludePersonalContext != nil {
			includeContext = *req.IncludePersonalContext
		}

		res, err := deps.Chat.Handle(r.Context(), chat.Request{
			Message:                req.Message,
			SessionID:              req.SessionID,
			IncludePersonalContext: includeContext,
		})
		if err != nil {
			writeChatError(w, err)
			return
		}

		writeJSON(w, chatResponse{
			Response:         res.Response,
			SessionID:        res.SessionID,
			PersonalDataUsed: res.PersonalDataUsed,
			ContextLength:    res.ContextLength,
			IsDemo:           res.IsDemo,
		})
	}
}

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
	case errors.Is(err, llm.ErrAuthentication):
		httpError(w, http.StatusBadGateway, "model_authentication_error", "model credentials rejected: %v", err)
	case errors.Is(err, llm.ErrRateLimited):
		httpError(w, http.StatusTooManyRequests, "model_rate_limit_error", "model rate limited, retry later: %v", err)
	default:
		httpError(w, http.StatusBadGateway, "api_error", "model call failed: %v", err)
	}
}

// --- Profile ---

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profiles.Read()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read profile: %v", err)
			return
		}
		writeJSON(w, p)
	}
}

func handlePutProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var doc profile.Profile
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		stored, err := deps.Profiles.Write(doc)
		if err != nil {
			writeProfileError(w, err)
			return
		}
		writeJSON(w, stored)
	}
}

func handleGetSection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "section")

		v, err := deps.Profiles.ReadSection(name)
		if err != nil {
			writeProfileError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func handlePutSection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		v, err := deps.Profiles.WriteSection(chi.URLParam(r, "section"), raw)
		if err != nil {
			writeProfileError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func writeProfileError(w http.ResponseWriter, err error) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "validation_error",
				"field":   verr.Field,
				"message": verr.Message,
			},
		})
	case errors.Is(err, profile.ErrUnknownSection):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, profile.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "profile operation failed: %v", err)
	}
}

// --- Search ---

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results  profile.Profile `json:"results"`
	Sections []string        `json:"sections"`
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		doc, err := deps.Profiles.Read()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read profile: %v", err)
			return
		}

		results := search.Relevant(req.Query, doc)
		sections := search.Sections(results)
		if sections == nil {
			sections = []string{}
		}
		writeJSON(w, searchResponse{Results: results, Sections: sections})
	}
}

// --- Context management ---

type contextResponse struct {
	SessionID string      `json:"sessionId"`
	Messages  []chat.Turn `json:"messages"`
}

func handleGetContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		writeJSON(w, contextResponse{SessionID: id, Messages: deps.Window.Get(id)})
	}
}

func handleClearContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Window.Clear(chi.URLParam(r, "sessionID"))
		writeJSON(w, map[string]string{"status": "cleared"})
	}
}

func handleListSessions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Window.Sessions())
	}
}

// --- Exchange log ---

func handleListExchanges(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		exchanges, err := deps.Exchanges.ListExchanges(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list exchanges: %v", err)
			return
		}
		if exchanges == nil {
			exchanges = []storage.Exchange{}
		}
		writeJSON(w, exchanges)
	}
}

func handleGetExchange(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, err := deps.Exchanges.GetExchange(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "exchange not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get exchange: %v", err)
			return
		}
		writeJSON(w, x)
	}
}

func handleDeleteExchange(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Exchanges.DeleteExchange(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "exchange not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete exchange: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
