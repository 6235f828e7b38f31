package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/psyline/psybot/internal/adapter"
)

// fakeClient implements slackClient for tests.
type fakeClient struct {
	mu        sync.Mutex
	postedTo  []string
	openCalls int
	users     map[string]*slackapi.User
}

func (f *fakeClient) AuthTest() (*slackapi.AuthTestResponse, error) {
	return &slackapi.AuthTestResponse{UserID: "BOT1", User: "psybot"}, nil
}

func (f *fakeClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postedTo = append(f.postedTo, channelID)
	return channelID, "1.0", nil
}

func (f *fakeClient) OpenConversation(params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	ch := &slackapi.Channel{}
	ch.ID = "D" + params.Users[0]
	return ch, false, false, nil
}

func (f *fakeClient) GetUserInfo(userID string) (*slackapi.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return &slackapi.User{Name: userID}, nil
}

// fakeSocket implements socketClient for tests.
type fakeSocket struct {
	events chan socketmode.Event
	acked  int
	mu     sync.Mutex
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{events: make(chan socketmode.Event, 10)}
}

func (f *fakeSocket) Run() error                        { select {} }
func (f *fakeSocket) EventsChan() chan socketmode.Event { return f.events }
func (f *fakeSocket) Ack(req socketmode.Request, payload ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
}

func newConnectedAdapter(t *testing.T) (*Adapter, *fakeClient, *fakeSocket) {
	t.Helper()
	client := &fakeClient{users: map[string]*slackapi.User{}}
	socket := newFakeSocket()
	a, err := New(AdapterOpts{Client: client, Socket: socket})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, client, socket
}

func TestNewRequiresTokens(t *testing.T) {
	if _, err := New(AdapterOpts{BotToken: "xoxb-1"}); err == nil {
		t.Fatal("want error without app token")
	}
	if _, err := New(AdapterOpts{AppToken: "xapp-1"}); err == nil {
		t.Fatal("want error without bot token")
	}
}

func TestConnectCapturesBotUserID(t *testing.T) {
	a, _, _ := newConnectedAdapter(t)
	if a.BotUserID() != "BOT1" {
		t.Errorf("bot user id = %q", a.BotUserID())
	}
}

func TestSendOpensAndCachesIMChannel(t *testing.T) {
	a, client, _ := newConnectedAdapter(t)

	for i := 0; i < 2; i++ {
		err := a.Send(context.Background(), adapter.Outbound{UserID: "U1", Text: "привет"})
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	if client.openCalls != 1 {
		t.Errorf("conversation opened %d times, want 1 (cached)", client.openCalls)
	}
	if client.postedTo[0] != "DU1" || client.postedTo[1] != "DU1" {
		t.Errorf("posted to %v", client.postedTo)
	}
}

func TestInboundFiltersNonDMAndBots(t *testing.T) {
	a, client, socket := newConnectedAdapter(t)
	client.users["U1"] = &slackapi.User{
		Name:     "anna",
		RealName: "Анна П",
		Profile:  slackapi.UserProfile{FirstName: "Анна", LastName: "П"},
	}

	inbound, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	// Self message, bot message, channel chatter, then a real DM.
	socket.events <- messageEvent(&slackevents.MessageEvent{
		User: "BOT1", Channel: "D1", ChannelType: "im", Text: "x",
	})
	socket.events <- messageEvent(&slackevents.MessageEvent{
		User: "U9", BotID: "B1", Channel: "D1", ChannelType: "im", Text: "x",
	})
	socket.events <- messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "C1", ChannelType: "channel", Text: "x",
	})
	socket.events <- messageEvent(&slackevents.MessageEvent{
		User: "U1", Channel: "D1", ChannelType: "im", Text: "привет",
		TimeStamp: "1700000000.000100",
	})

	select {
	case msg := <-inbound:
		if msg.UserID != "U1" || msg.Text != "привет" {
			t.Errorf("inbound = %+v", msg)
		}
		if msg.Username != "anna" || msg.FirstName != "Анна" || msg.LastName != "П" {
			t.Errorf("profile = %q %q %q", msg.Username, msg.FirstName, msg.LastName)
		}
		if msg.Timestamp.Unix() != 1700000000 {
			t.Errorf("timestamp = %v", msg.Timestamp)
		}
	case <-time.After(time.Second):
		t.Fatal("the DM never arrived")
	}

	select {
	case msg := <-inbound:
		t.Errorf("unexpected extra message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseSlackTimestamp(t *testing.T) {
	if got := parseSlackTimestamp("1234567890.123456"); got.Unix() != 1234567890 {
		t.Errorf("got %v", got)
	}
	if got := parseSlackTimestamp("garbage"); !got.IsZero() {
		t.Errorf("got %v, want zero time", got)
	}
}

func messageEvent(ev *slackevents.MessageEvent) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type:       slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{Data: ev},
		},
		Request: &socketmode.Request{},
	}
}
