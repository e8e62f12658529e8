package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/facet/internal/profile"
	"github.com/kalambet/facet/internal/search"
	"github.com/kalambet/facet/internal/storage"
)

// ErrEmptyMessage is returned when a chat request carries no message.
var ErrEmptyMessage = errors.New("chat: message must not be empty")

// DefaultSessionID is used when a request does not name a session.
const DefaultSessionID = "default"

// Completer is the external language model: prompt in, completion out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProfileReader supplies the profile document for relevance search.
type ProfileReader interface {
	Read() (profile.Profile, error)
}

// ExchangeLog records completed exchanges for the audit trail.
type ExchangeLog interface {
	SaveExchange(x storage.Exchange) error
}

// Service coordinates one chat request: relevance search, context window,
// prompt composition, the model call, and the window update.
type Service struct {
	profiles  ProfileReader
	window    *Window
	completer Completer   // nil means no model credential: demo mode
	exchanges ExchangeLog // optional
	logger    *slog.Logger
}

// NewService wires the orchestrator. completer may be nil (demo mode) and
// exchanges may be nil (no audit trail).
func NewService(profiles ProfileReader, window *Window, completer Completer, exchanges ExchangeLog) *Service {
	return &Service{
		profiles:  profiles,
		window:    window,
		completer: completer,
		exchanges: exchanges,
		logger:    slog.Default(),
	}
}

// Request is one inbound chat turn.
type Request struct {
	Message                string
	SessionID              string
	IncludePersonalContext bool
}

// Result carries the reply plus metadata about how it was produced.
// ContextLength is the history length before this exchange was appended.
type Result struct {
	Response         string
	SessionID        string
	PersonalDataUsed bool
	ContextLength    int
	IsDemo           bool
}

// Handle runs the full chat pipeline for one request. Relevance-search
// failures are logged and treated as "no context found" so a transient
// profile problem never blocks chat; model failures propagate with their
// classification intact. Nothing is retried.
func (s *Service) Handle(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Result{}, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	if s.completer == nil {
		return Result{
			Response:  demoResponse(req.Message),
			SessionID: sessionID,
			IsDemo:    true,
		}, nil
	}

	var relevant profile.Profile
	if req.IncludePersonalContext {
		doc, err := s.profiles.Read()
		if err != nil {
			s.logger.Warn("relevance search skipped, proceeding without personal context", "error", err)
		} else {
			relevant = search.Relevant(req.Message, doc)
		}
	}
	personalDataUsed := len(search.Sections(relevant)) > 0

	history := s.window.Get(sessionID)
	prompt := ComposePrompt(req.Message, relevant, history)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("completing chat: %w", err)
	}

	s.window.Append(sessionID, req.Message, reply)
	s.record(sessionID, req.Message, prompt, reply, personalDataUsed)

	return Result{
		Response:         reply,
		SessionID:        sessionID,
		PersonalDataUsed: personalDataUsed,
		ContextLength:    len(history),
	}, nil
}

// record writes the exchange to the audit log. Failures are logged, never
// surfaced: the reply has already been produced.
func (s *Service) record(sessionID, message, prompt, reply string, personalDataUsed bool) {
	if s.exchanges == nil {
		return
	}
	err := s.exchanges.SaveExchange(storage.Exchange{
		ID:               uuid.New().String(),
		CreatedAt:        time.Now().UTC(),
		SessionID:        sessionID,
		UserMessage:      message,
		Prompt:           prompt,
		Response:         reply,
		PersonalDataUsed: personalDataUsed,
	})
	if err != nil {
		s.logger.Warn("recording exchange failed", "session_id", sessionID, "error", err)
	}
}

func demoResponse(message string) string {
	return fmt.Sprintf(
		"Demo mode: no language model credential is configured, so this is a canned reply. "+
			"You asked: %q. Set the model API key to get real answers about this profile.",
		message,
	)
}
