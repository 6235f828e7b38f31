package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/psyline/psybot/internal/models"
)

const (
	// memoryLastMessages caps the rolling window kept per user.
	memoryLastMessages = 8
	// summaryUpdateEvery refreshes the summary slot after this many exchanges.
	summaryUpdateEvery = 12
)

// Memory is the long-lived conversational memory kept per user, outside the
// session: a compressed summary plus a short rolling window of turns.
type Memory struct {
	Summary      string            `json:"summary"`
	LastMessages []models.ChatTurn `json:"last_messages"`
	MessageCount int               `json:"message_count"`
}

// MemoryStore holds per-user memories. When a path is configured the store
// is persisted to a JSON file on every update.
type MemoryStore struct {
	mu    sync.Mutex
	path  string
	users map[string]*Memory
}

// NewMemoryStore creates a MemoryStore, loading the JSON file at path when
// it exists. An empty path keeps the store purely in-process.
func NewMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{path: path, users: make(map[string]*Memory)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ai: read memory store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, fmt.Errorf("ai: parse memory store %s: %w", path, err)
	}
	return s, nil
}

// Get returns a copy of the user's memory.
func (s *MemoryStore) Get(userID string) Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.users[userID]; ok {
		cp := *m
		cp.LastMessages = append([]models.ChatTurn(nil), m.LastMessages...)
		return cp
	}
	return Memory{}
}

// Record appends one exchange to the user's memory window and returns the
// updated copy. The window is truncated to memoryLastMessages entries.
func (s *MemoryStore) Record(userID string, user, assistant models.ChatTurn) Memory {
	s.mu.Lock()
	m, ok := s.users[userID]
	if !ok {
		m = &Memory{}
		s.users[userID] = m
	}
	m.LastMessages = append(m.LastMessages, user, assistant)
	if len(m.LastMessages) > memoryLastMessages {
		m.LastMessages = m.LastMessages[len(m.LastMessages)-memoryLastMessages:]
	}
	m.MessageCount++
	cp := *m
	cp.LastMessages = append([]models.ChatTurn(nil), m.LastMessages...)
	s.mu.Unlock()

	s.save()
	return cp
}

// SetSummary replaces the user's summary slot.
func (s *MemoryStore) SetSummary(userID, summary string) {
	s.mu.Lock()
	m, ok := s.users[userID]
	if !ok {
		m = &Memory{}
		s.users[userID] = m
	}
	m.Summary = summary
	s.mu.Unlock()

	s.save()
}

// Clear drops the user's memory.
func (s *MemoryStore) Clear(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()

	s.save()
}

// save writes the store to disk when a path is configured. The memory is a
// cache; a failed flush must not fail the reply that triggered it.
func (s *MemoryStore) save() {
	if s.path == "" {
		return
	}
	s.mu.Lock()
	data, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o600)
}
