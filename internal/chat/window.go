package chat

import (
	"sort"
	"sync"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxTurns caps each session at the 10 most recent turns (5 exchanges).
const maxTurns = 10

// Turn is one message in a conversation, tagged with its speaker role.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionInfo summarizes one live session for observability.
type SessionInfo struct {
	SessionID    string `json:"sessionId"`
	MessageCount int    `json:"messageCount"`
}

// Window holds the capped recent-turn history per session. Sessions are
// created lazily on first append and live until cleared or process exit;
// there is no expiry. All methods are safe for concurrent use.
type Window struct {
	mu       sync.Mutex
	sessions map[string][]Turn
}

// NewWindow creates an empty Window.
func NewWindow() *Window {
	return &Window{sessions: make(map[string][]Turn)}
}

// Get returns a copy of the session's turns, oldest first. Unknown sessions
// yield an empty slice, never an error.
func (w *Window) Get(sessionID string) []Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	turns := w.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records one exchange: the user message followed by the assistant
// reply. Oldest turns are evicted to keep the session at maxTurns.
func (w *Window) Append(sessionID, userMessage, assistantReply string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	turns := append(w.sessions[sessionID],
		Turn{Role: RoleUser, Content: userMessage},
		Turn{Role: RoleAssistant, Content: assistantReply},
	)
	if excess := len(turns) - maxTurns; excess > 0 {
		turns = append(turns[:0:0], turns[excess:]...)
	}
	w.sessions[sessionID] = turns
}

// Clear removes all turns for the session. Clearing an unknown session is a
// no-op.
func (w *Window) Clear(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionID)
}

// Sessions lists live sessions sorted by id.
func (w *Window) Sessions() []SessionInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]SessionInfo, 0, len(w.sessions))
	for id, turns := range w.sessions {
		out = append(out, SessionInfo{SessionID: id, MessageCount: len(turns)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}
