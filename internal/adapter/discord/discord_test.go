package discord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/psyline/psybot/internal/adapter"
)

// fakeSession implements the session interface for tests.
type fakeSession struct {
	mu       sync.Mutex
	opened   bool
	closed   bool
	sent     []string
	sentTo   []string
	handlers []interface{}
	dmCalls  int
}

func (f *fakeSession) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentTo = append(f.sentTo, channelID)
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "m1"}, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmCalls++
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) AddHandler(handler interface{}) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
	return func() {}
}

func newConnectedAdapter(t *testing.T) (*Adapter, *fakeSession) {
	t.Helper()
	sess := &fakeSession{}
	a, err := New(AdapterOpts{Session: sess})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, sess
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(AdapterOpts{}); err == nil {
		t.Fatal("want error without bot token or injected session")
	}
}

func TestSendToChannel(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	err := a.Send(context.Background(), adapter.Outbound{ChannelID: "c1", Text: "привет"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sess.sent) != 1 || sess.sent[0] != "привет" || sess.sentTo[0] != "c1" {
		t.Errorf("sent = %v to %v", sess.sent, sess.sentTo)
	}
}

func TestSendOpensAndCachesDMChannel(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	for i := 0; i < 2; i++ {
		err := a.Send(context.Background(), adapter.Outbound{UserID: "u1", Text: "привет"})
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	if sess.dmCalls != 1 {
		t.Errorf("dm channel created %d times, want 1 (cached)", sess.dmCalls)
	}
	if sess.sentTo[0] != "dm-u1" || sess.sentTo[1] != "dm-u1" {
		t.Errorf("sent to %v", sess.sentTo)
	}
}

func TestSendWithoutTargetFails(t *testing.T) {
	a, _ := newConnectedAdapter(t)

	if err := a.Send(context.Background(), adapter.Outbound{Text: "привет"}); err == nil {
		t.Fatal("want error without channel or user")
	}
}

func TestInboundFiltersBots(t *testing.T) {
	a, _ := newConnectedAdapter(t)
	a.SetBotUserID("bot1")

	inbound, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	// Self and bot messages are dropped.
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "1", ChannelID: "dm1", Content: "x",
		Author: &discordgo.User{ID: "bot1", Username: "self"},
	}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "2", ChannelID: "dm1", Content: "x",
		Author: &discordgo.User{ID: "other-bot", Username: "b", Bot: true},
	}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "3", ChannelID: "dm1", Content: "привет",
		Author: &discordgo.User{ID: "u1", Username: "anna"},
	}})

	select {
	case msg := <-inbound:
		if msg.UserID != "u1" || msg.Text != "привет" || msg.Username != "anna" {
			t.Errorf("inbound = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("the user message never arrived")
	}

	select {
	case msg := <-inbound:
		t.Errorf("unexpected extra message: %+v", msg)
	default:
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !sess.closed {
		t.Error("session should be closed")
	}
}
