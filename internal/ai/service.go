package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/psyline/psybot/internal/config"
	"github.com/psyline/psybot/internal/models"
)

// maxResponseLength truncates overlong completions before they reach chat.
const maxResponseLength = 1200

// userState is the per-user rate and cache state, kept outside the session.
type userState struct {
	limiter       *rate.Limiter
	lastRequestAt time.Time
	inFlight      bool
	lastMessage   string
	lastResponse  string
}

// Service wraps a Completer with the per-user guard rails: an in-flight
// guard, a minimum inter-message interval, a per-minute cap, crisis and
// small-talk short-circuits, a repeated-question cache and the rolling
// memory. Reply never returns an error; every failure kind degrades to a
// fixed reply string.
type Service struct {
	completer Completer
	memory    *MemoryStore
	cfg       config.AIConfig

	rateLimit bool
	now       func() time.Time

	mu    sync.Mutex
	users map[string]*userState
}

// ServiceOpts holds parameters for creating a Service.
type ServiceOpts struct {
	Completer Completer
	Memory    *MemoryStore
	Config    config.AIConfig
	// DisableRateLimit turns off the interval and per-minute guards
	// (the in-flight guard always applies).
	DisableRateLimit bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewService creates a Service.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Completer == nil {
		return nil, fmt.Errorf("ai: service: completer is required")
	}
	if opts.Memory == nil {
		return nil, fmt.Errorf("ai: service: memory store is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		completer: opts.Completer,
		memory:    opts.Memory,
		cfg:       opts.Config,
		rateLimit: !opts.DisableRateLimit,
		now:       now,
		users:     make(map[string]*userState),
	}, nil
}

// Reply produces the assistant reply for one user message. history is the
// session's visible conversation, already including past turns but not the
// current message.
func (s *Service) Reply(ctx context.Context, userID, message string, history []models.ChatTurn) string {
	if s.cfg.MaxMessageLength > 0 && len([]rune(message)) > s.cfg.MaxMessageLength {
		return fmt.Sprintf("Сообщение слишком длинное. Пожалуйста, сократите до %d символов.", s.cfg.MaxMessageLength)
	}

	if isCrisisMessage(message) {
		s.cache(userID, message, CrisisResponse)
		return CrisisResponse
	}

	if reply, ok := s.admit(userID, message); !ok {
		return reply
	}
	defer s.release(userID)

	if reply, ok := s.cachedReply(userID, message); ok {
		return reply
	}

	reply := s.complete(ctx, userID, message, history)
	if reply != FallbackResponse && reply != TimeoutResponse && reply != RateLimitedResponse {
		s.cache(userID, message, reply)
	}
	return reply
}

// ClearUser wipes the user's memory and rate state, for the /clear command.
func (s *Service) ClearUser(userID string) {
	s.memory.Clear(userID)
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
}

// admit applies the in-flight guard and the rate limits. When the message
// must be rejected it returns (reply, false); otherwise it marks the user
// in-flight and returns ("", true). Small-talk is answered here so it does
// not consume rate budget for an LLM call it never makes.
func (s *Service) admit(userID, message string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.userStateLocked(userID)
	if st.inFlight {
		return PleaseWaitResponse, false
	}

	if reply, ok := smallTalkReply(message); ok {
		st.lastMessage = message
		st.lastResponse = reply
		return reply, false
	}

	if s.rateLimit {
		now := s.now()
		if !st.lastRequestAt.IsZero() && now.Sub(st.lastRequestAt).Seconds() < s.cfg.MinIntervalSecs {
			return PleaseWaitResponse, false
		}
		if !st.limiter.AllowN(now, 1) {
			return PleaseWaitResponse, false
		}
		st.lastRequestAt = now
	}

	st.inFlight = true
	return "", true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	if st, ok := s.users[userID]; ok {
		st.inFlight = false
	}
	s.mu.Unlock()
}

// complete runs the actual completion with memory context and degrades
// every failure kind to its canned reply.
func (s *Service) complete(ctx context.Context, userID, message string, history []models.ChatTurn) string {
	mem := s.memory.Get(userID)

	turns := make([]models.ChatTurn, 0, memoryLastMessages+2)
	if mem.Summary != "" {
		turns = append(turns, models.ChatTurn{
			Role:    "system",
			Content: "Краткая память о пользователе: " + mem.Summary,
		})
	}
	recent := history
	if len(recent) > memoryLastMessages {
		recent = recent[len(recent)-memoryLastMessages:]
	}
	turns = append(turns, recent...)
	turns = append(turns, models.ChatTurn{Role: "user", Content: message})

	reply, err := s.completer.Complete(ctx, Request{
		System:      SystemPrompt,
		Turns:       turns,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		log.Printf("ai: completion for user %s: %v", userID, err)
		switch {
		case errors.Is(err, ErrTimeout):
			return TimeoutResponse
		case errors.Is(err, ErrRateLimited):
			return RateLimitedResponse
		default:
			return FallbackResponse
		}
	}

	if len([]rune(reply)) > maxResponseLength {
		reply = strings.TrimSpace(string([]rune(reply)[:maxResponseLength])) + "…"
	}

	mem = s.memory.Record(userID,
		models.ChatTurn{Role: "user", Content: message},
		models.ChatTurn{Role: "assistant", Content: reply},
	)
	if summaryUpdateEvery > 0 && mem.MessageCount%summaryUpdateEvery == 0 {
		s.refreshSummary(ctx, userID, mem)
	}

	return reply
}

// refreshSummary asks the completer to compress the memory window into the
// summary slot. A failed refresh keeps the previous summary.
func (s *Service) refreshSummary(ctx context.Context, userID string, mem Memory) {
	if len(mem.LastMessages) == 0 {
		return
	}
	var dialog strings.Builder
	for _, t := range mem.LastMessages {
		fmt.Fprintf(&dialog, "%s: %s\n", t.Role, t.Content)
	}
	current := mem.Summary
	if current == "" {
		current = "нет"
	}
	request := fmt.Sprintf("Текущее резюме: %s\n\nПоследние сообщения:\n%s\nСделай обновленное краткое резюме пользователя.",
		current, dialog.String())

	summary, err := s.completer.Complete(ctx, Request{
		System:      summaryPrompt,
		Turns:       []models.ChatTurn{{Role: "user", Content: request}},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	if err != nil {
		log.Printf("ai: summary refresh for user %s: %v", userID, err)
		return
	}
	s.memory.SetSummary(userID, summary)
}

func (s *Service) cache(userID, message, reply string) {
	s.mu.Lock()
	st := s.userStateLocked(userID)
	st.lastMessage = message
	st.lastResponse = reply
	s.mu.Unlock()
}

func (s *Service) cachedReply(userID, message string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.userStateLocked(userID)
	if st.lastMessage != "" && st.lastMessage == message && st.lastResponse != "" {
		return st.lastResponse, true
	}
	return "", false
}

// userStateLocked returns the user's state, creating it on first use.
// Callers must hold s.mu.
func (s *Service) userStateLocked(userID string) *userState {
	st, ok := s.users[userID]
	if !ok {
		perMinute := s.cfg.MaxPerMinute
		if perMinute <= 0 {
			perMinute = 12
		}
		st = &userState{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		}
		s.users[userID] = st
	}
	return st
}

// normalizeMessage lowercases and strips punctuation for keyword matching.
func normalizeMessage(text string) string {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	return strings.Map(func(r rune) rune {
		switch r {
		case '!', '.', ',', '?', '…', ':', ';':
			return -1
		}
		return r
	}, cleaned)
}

func isCrisisMessage(text string) bool {
	normalized := normalizeMessage(text)
	for _, phrase := range crisisKeywords {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

func smallTalkReply(text string) (string, bool) {
	if smallTalk[normalizeMessage(text)] {
		return smallTalkReplies[rand.Intn(len(smallTalkReplies))], true
	}
	return "", false
}
