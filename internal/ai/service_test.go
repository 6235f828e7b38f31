package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/psyline/psybot/internal/config"
	"github.com/psyline/psybot/internal/models"
)

// stubCompleter returns canned replies or errors and records calls.
type stubCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	block   chan struct{} // when set, Complete waits until closed
	lastReq Request
}

func (c *stubCompleter) Complete(ctx context.Context, req Request) (string, error) {
	c.mu.Lock()
	c.calls++
	c.lastReq = req
	block := c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return c.reply, c.err
}

func (c *stubCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestService(t *testing.T, completer Completer, disableRate bool) *Service {
	t.Helper()
	mem, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	svc, err := NewService(ServiceOpts{
		Completer:        completer,
		Memory:           mem,
		Config:           config.AIConfig{MaxMessageLength: 1200, MinIntervalSecs: 4, MaxPerMinute: 12},
		DisableRateLimit: disableRate,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestReplyPassesThroughCompletion(t *testing.T) {
	stub := &stubCompleter{reply: "Расскажите подробнее."}
	svc := newTestService(t, stub, true)

	got := svc.Reply(context.Background(), "u1", "мне тревожно", nil)
	if got != "Расскажите подробнее." {
		t.Errorf("reply = %q", got)
	}
	if stub.callCount() != 1 {
		t.Errorf("completer calls = %d, want 1", stub.callCount())
	}
}

func TestReplyIncludesHistoryWindow(t *testing.T) {
	stub := &stubCompleter{reply: "ок"}
	svc := newTestService(t, stub, true)

	history := make([]models.ChatTurn, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, models.ChatTurn{Role: "user", Content: "старое"})
	}
	svc.Reply(context.Background(), "u1", "новое сообщение", history)

	// Eight most recent history turns plus the current message.
	if got := len(stub.lastReq.Turns); got != 9 {
		t.Errorf("turns sent = %d, want 9", got)
	}
	last := stub.lastReq.Turns[len(stub.lastReq.Turns)-1]
	if last.Role != "user" || last.Content != "новое сообщение" {
		t.Errorf("last turn = %+v", last)
	}
}

func TestReplyDegradesOnErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrTimeout, TimeoutResponse},
		{ErrRateLimited, RateLimitedResponse},
		{errors.New("boom"), FallbackResponse},
	}

	for _, tt := range tests {
		stub := &stubCompleter{err: tt.err}
		svc := newTestService(t, stub, true)
		got := svc.Reply(context.Background(), "u1", "вопрос", nil)
		if got != tt.want {
			t.Errorf("Reply with %v = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCrisisMessageShortCircuits(t *testing.T) {
	stub := &stubCompleter{reply: "не должно дойти"}
	svc := newTestService(t, stub, true)

	got := svc.Reply(context.Background(), "u1", "Мне кажется, нет смысла жить.", nil)
	if got != CrisisResponse {
		t.Errorf("reply = %q, want crisis response", got)
	}
	if stub.callCount() != 0 {
		t.Error("crisis messages must not reach the completer")
	}
}

func TestSmallTalkShortCircuits(t *testing.T) {
	stub := &stubCompleter{reply: "не должно дойти"}
	svc := newTestService(t, stub, true)

	got := svc.Reply(context.Background(), "u1", "Привет!", nil)
	if got == "" || got == "не должно дойти" {
		t.Errorf("reply = %q, want a canned small-talk reply", got)
	}
	if stub.callCount() != 0 {
		t.Error("small talk must not reach the completer")
	}
}

func TestRepeatedMessageUsesCache(t *testing.T) {
	stub := &stubCompleter{reply: "первый ответ"}
	svc := newTestService(t, stub, true)

	first := svc.Reply(context.Background(), "u1", "почему мне грустно", nil)
	second := svc.Reply(context.Background(), "u1", "почему мне грустно", nil)
	if first != second {
		t.Errorf("cached reply differs: %q vs %q", first, second)
	}
	if stub.callCount() != 1 {
		t.Errorf("completer calls = %d, want 1", stub.callCount())
	}
}

func TestInFlightGuard(t *testing.T) {
	stub := &stubCompleter{reply: "долгий ответ", block: make(chan struct{})}
	svc := newTestService(t, stub, true)

	done := make(chan string, 1)
	go func() {
		done <- svc.Reply(context.Background(), "u1", "первый вопрос", nil)
	}()

	// Wait until the first request is inside the completer.
	deadline := time.After(2 * time.Second)
	for stub.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first request never reached the completer")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	got := svc.Reply(context.Background(), "u1", "второй вопрос", nil)
	if got != PleaseWaitResponse {
		t.Errorf("second reply = %q, want please-wait", got)
	}

	close(stub.block)
	if first := <-done; first != "долгий ответ" {
		t.Errorf("first reply = %q", first)
	}
}

func TestMinIntervalRejectsRapidMessages(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	stub := &stubCompleter{reply: "ответ"}
	svc, err := NewService(ServiceOpts{
		Completer: stub,
		Memory:    mem,
		Config:    config.AIConfig{MinIntervalSecs: 4, MaxPerMinute: 12},
		Now:       func() time.Time { return clock },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if got := svc.Reply(context.Background(), "u1", "раз", nil); got != "ответ" {
		t.Fatalf("first reply = %q", got)
	}

	clock = clock.Add(2 * time.Second)
	if got := svc.Reply(context.Background(), "u1", "два", nil); got != PleaseWaitResponse {
		t.Errorf("rapid reply = %q, want please-wait", got)
	}

	clock = clock.Add(5 * time.Second)
	if got := svc.Reply(context.Background(), "u1", "три", nil); got != "ответ" {
		t.Errorf("spaced reply = %q", got)
	}
}

func TestOverlongMessageRejected(t *testing.T) {
	stub := &stubCompleter{reply: "ответ"}
	svc := newTestService(t, stub, true)

	long := strings.Repeat("а", 1201)
	got := svc.Reply(context.Background(), "u1", long, nil)
	if !strings.Contains(got, "слишком длинное") {
		t.Errorf("reply = %q, want length complaint", got)
	}
	if stub.callCount() != 0 {
		t.Error("overlong messages must not reach the completer")
	}
}

func TestOverlongCompletionTruncated(t *testing.T) {
	stub := &stubCompleter{reply: strings.Repeat("б", 2000)}
	svc := newTestService(t, stub, true)

	got := svc.Reply(context.Background(), "u1", "вопрос", nil)
	if runes := len([]rune(got)); runes > maxResponseLength+1 {
		t.Errorf("reply length = %d runes, want at most %d", runes, maxResponseLength+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated reply should end with an ellipsis")
	}
}

func TestClearUserResetsCache(t *testing.T) {
	stub := &stubCompleter{reply: "ответ"}
	svc := newTestService(t, stub, true)

	svc.Reply(context.Background(), "u1", "вопрос", nil)
	svc.ClearUser("u1")
	svc.Reply(context.Background(), "u1", "вопрос", nil)

	if stub.callCount() != 2 {
		t.Errorf("completer calls = %d, want 2 after clear", stub.callCount())
	}
}
