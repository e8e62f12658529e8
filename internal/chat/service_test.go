package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/facet/internal/profile"
	"github.com/kalambet/facet/internal/storage"
)

type fakeProfiles struct {
	doc profile.Profile
	err error
}

func (f *fakeProfiles) Read() (profile.Profile, error) { return f.doc, f.err }

type fakeCompleter struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

type fakeExchangeLog struct {
	saved []storage.Exchange
	err   error
}

func (f *fakeExchangeLog) SaveExchange(x storage.Exchange) error {
	f.saved = append(f.saved, x)
	return f.err
}

func testDoc() profile.Profile {
	return profile.Profile{
		Skills:      []profile.Skill{{ID: "s1", Name: "React", Category: "programming", Proficiency: "advanced"}},
		Preferences: &profile.Preferences{WorkStyle: "remote"},
	}
}

func TestHandle_EmptyMessage(t *testing.T) {
	svc := NewService(&fakeProfiles{}, NewWindow(), &fakeCompleter{}, nil)

	for _, msg := range []string{"", "   "} {
		if _, err := svc.Handle(context.Background(), Request{Message: msg}); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("message %q: err = %v, want ErrEmptyMessage", msg, err)
		}
	}
}

func TestHandle_DemoMode(t *testing.T) {
	window := NewWindow()
	svc := NewService(&fakeProfiles{doc: testDoc()}, window, nil, nil)

	res, err := svc.Handle(context.Background(), Request{
		Message: "hello", SessionID: "s1", IncludePersonalContext: true,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !res.IsDemo {
		t.Error("IsDemo = false, want true")
	}
	if res.PersonalDataUsed {
		t.Error("PersonalDataUsed = true in demo mode")
	}
	if !strings.Contains(res.Response, "hello") {
		t.Errorf("demo response does not echo the message: %q", res.Response)
	}
	if got := window.Get("s1"); len(got) != 0 {
		t.Errorf("demo mode touched the context window: %#v", got)
	}
}

func TestHandle_SuccessUpdatesWindow(t *testing.T) {
	window := NewWindow()
	completer := &fakeCompleter{reply: "Hi"}
	svc := NewService(&fakeProfiles{doc: testDoc()}, window, completer, nil)

	res, err := svc.Handle(context.Background(), Request{
		Message: "hi", SessionID: "s1", IncludePersonalContext: true,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.IsDemo {
		t.Error("IsDemo = true with a configured completer")
	}
	if res.Response != "Hi" {
		t.Errorf("response = %q, want Hi", res.Response)
	}
	if res.ContextLength != 0 {
		t.Errorf("ContextLength = %d, want 0 (pre-update length)", res.ContextLength)
	}

	turns := window.Get("s1")
	if len(turns) != 2 {
		t.Fatalf("window has %d turns, want 2", len(turns))
	}
	if turns[0] != (Turn{Role: RoleUser, Content: "hi"}) {
		t.Errorf("turns[0] = %#v", turns[0])
	}
	if turns[1] != (Turn{Role: RoleAssistant, Content: "Hi"}) {
		t.Errorf("turns[1] = %#v", turns[1])
	}
}

func TestHandle_ContextLengthIsPreUpdate(t *testing.T) {
	window := NewWindow()
	svc := NewService(&fakeProfiles{}, window, &fakeCompleter{reply: "ok"}, nil)

	for i, want := range []int{0, 2, 4} {
		res, err := svc.Handle(context.Background(), Request{Message: "q", SessionID: "s1"})
		if err != nil {
			t.Fatalf("Handle %d failed: %v", i, err)
		}
		if res.ContextLength != want {
			t.Errorf("call %d: ContextLength = %d, want %d", i, res.ContextLength, want)
		}
	}
}

func TestHandle_PersonalDataUsed(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	svc := NewService(&fakeProfiles{doc: testDoc()}, NewWindow(), completer, nil)

	res, err := svc.Handle(context.Background(), Request{
		Message: "tell me about react", SessionID: "s1", IncludePersonalContext: true,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !res.PersonalDataUsed {
		t.Error("PersonalDataUsed = false, want true")
	}
	if !strings.Contains(completer.lastPrompt, "React") {
		t.Errorf("prompt missing relevant skill:\n%s", completer.lastPrompt)
	}

	// Without personal context the profile must stay out of the prompt.
	res, err = svc.Handle(context.Background(), Request{Message: "tell me about react", SessionID: "s2"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.PersonalDataUsed {
		t.Error("PersonalDataUsed = true with IncludePersonalContext false")
	}
	if strings.Contains(completer.lastPrompt, "React") {
		t.Error("profile data leaked into prompt with IncludePersonalContext false")
	}
}

func TestHandle_SearchFailureDoesNotBlockChat(t *testing.T) {
	completer := &fakeCompleter{reply: "still works"}
	svc := NewService(&fakeProfiles{err: errors.New("disk on fire")}, NewWindow(), completer, nil)

	res, err := svc.Handle(context.Background(), Request{
		Message: "hi", SessionID: "s1", IncludePersonalContext: true,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.Response != "still works" {
		t.Errorf("response = %q", res.Response)
	}
	if res.PersonalDataUsed {
		t.Error("PersonalDataUsed = true after a failed profile read")
	}
}

func TestHandle_ModelFailurePropagates(t *testing.T) {
	upstream := errors.New("model exploded")
	window := NewWindow()
	svc := NewService(&fakeProfiles{}, window, &fakeCompleter{err: upstream}, nil)

	_, err := svc.Handle(context.Background(), Request{Message: "hi", SessionID: "s1"})
	if !errors.Is(err, upstream) {
		t.Fatalf("err = %v, want wrapped upstream error", err)
	}
	if got := window.Get("s1"); len(got) != 0 {
		t.Errorf("window updated despite model failure: %#v", got)
	}
}

func TestHandle_DefaultsSessionID(t *testing.T) {
	svc := NewService(&fakeProfiles{}, NewWindow(), &fakeCompleter{reply: "ok"}, nil)

	res, err := svc.Handle(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.SessionID != DefaultSessionID {
		t.Errorf("SessionID = %q, want %q", res.SessionID, DefaultSessionID)
	}
}

func TestHandle_RecordsExchange(t *testing.T) {
	log := &fakeExchangeLog{}
	svc := NewService(&fakeProfiles{doc: testDoc()}, NewWindow(), &fakeCompleter{reply: "Hi"}, log)

	if _, err := svc.Handle(context.Background(), Request{
		Message: "react?", SessionID: "s1", IncludePersonalContext: true,
	}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(log.saved) != 1 {
		t.Fatalf("exchanges recorded = %d, want 1", len(log.saved))
	}
	x := log.saved[0]
	if x.ID == "" || x.SessionID != "s1" || x.UserMessage != "react?" || x.Response != "Hi" || !x.PersonalDataUsed {
		t.Errorf("recorded exchange = %#v", x)
	}
}

func TestHandle_ExchangeLogFailureIsSwallowed(t *testing.T) {
	log := &fakeExchangeLog{err: errors.New("db gone")}
	svc := NewService(&fakeProfiles{}, NewWindow(), &fakeCompleter{reply: "ok"}, log)

	if _, err := svc.Handle(context.Background(), Request{Message: "hi"}); err != nil {
		t.Fatalf("audit log failure surfaced to caller: %v", err)
	}
}
