package ai

import (
	"path/filepath"
	"testing"

	"github.com/psyline/psybot/internal/models"
)

func turn(role, content string) models.ChatTurn {
	return models.ChatTurn{Role: role, Content: content}
}

func TestRecordTruncatesWindow(t *testing.T) {
	s, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	var mem Memory
	for i := 0; i < 6; i++ {
		mem = s.Record("u1", turn("user", "вопрос"), turn("assistant", "ответ"))
	}
	if len(mem.LastMessages) != memoryLastMessages {
		t.Errorf("window = %d, want %d", len(mem.LastMessages), memoryLastMessages)
	}
	if mem.MessageCount != 6 {
		t.Errorf("count = %d, want 6", mem.MessageCount)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Record("u1", turn("user", "а"), turn("assistant", "б"))

	mem := s.Get("u1")
	mem.LastMessages[0].Content = "испорчено"

	if got := s.Get("u1"); got.LastMessages[0].Content != "а" {
		t.Error("mutating the returned memory must not touch the store")
	}
}

func TestClearDropsUser(t *testing.T) {
	s, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Record("u1", turn("user", "а"), turn("assistant", "б"))
	s.SetSummary("u1", "резюме")

	s.Clear("u1")
	if got := s.Get("u1"); got.Summary != "" || len(got.LastMessages) != 0 {
		t.Errorf("memory after clear = %+v", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	s, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Record("u1", turn("user", "а"), turn("assistant", "б"))
	s.SetSummary("u1", "пользователь тревожится о работе")

	reloaded, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	mem := reloaded.Get("u1")
	if mem.Summary != "пользователь тревожится о работе" {
		t.Errorf("summary = %q", mem.Summary)
	}
	if len(mem.LastMessages) != 2 {
		t.Errorf("window = %d", len(mem.LastMessages))
	}
}
