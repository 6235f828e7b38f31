package models

import (
	"strings"
	"time"
)

// Severity is the urgency level of a consultation request. The Russian
// display strings are also the stored comparison keys, so they must not
// change while old tickets exist.
type Severity string

const (
	SeverityLow      Severity = "Низкая"
	SeverityMedium   Severity = "Средняя"
	SeverityHigh     Severity = "Высокая"
	SeverityCritical Severity = "Критическая"
)

// severityKeys maps severity to its sort key. Lower key = more urgent,
// so Критическая sorts first in the assignment backlog.
var severityKeys = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// SortKey returns the backlog sort key for the severity. Unknown values
// sort last.
func (s Severity) SortKey() int {
	if k, ok := severityKeys[s]; ok {
		return k
	}
	return len(severityKeys)
}

// severityInputs maps user input (numeral or lowercased name) to a severity.
var severityInputs = map[string]Severity{
	"1": SeverityLow, "низкая": SeverityLow,
	"2": SeverityMedium, "средняя": SeverityMedium,
	"3": SeverityHigh, "высокая": SeverityHigh,
	"4": SeverityCritical, "критическая": SeverityCritical,
}

// ParseSeverity maps a form answer (a numeral 1-4 or a case-insensitive
// Russian name) to a Severity.
func ParseSeverity(input string) (Severity, bool) {
	s, ok := severityInputs[strings.ToLower(strings.TrimSpace(input))]
	return s, ok
}

// TicketStatus is the lifecycle label of a ticket.
type TicketStatus string

const (
	StatusNew             TicketStatus = "Новое"
	StatusInProgress      TicketStatus = "В работе"
	StatusWaitingResponse TicketStatus = "Ожидание ответа"
	StatusClosed          TicketStatus = "Закрыто"
)

// TicketMessage is one entry in a ticket's append-only chat log.
type TicketMessage struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
}

// Ticket is a submitted consultation request. The core fields are fixed at
// creation; only status, assignment and the chat log change afterwards.
type Ticket struct {
	ID         string          `gorm:"primaryKey;size:36"`
	UserID     string          `gorm:"size:64;not null;index"`
	Topic      string          `gorm:"size:256;not null"`
	Gender     string          `gorm:"size:32;not null"`
	Age        int             `gorm:"not null"`
	Severity   Severity        `gorm:"size:32;not null"`
	Message    string          `gorm:"type:text;not null"`
	Status     TicketStatus    `gorm:"size:32;not null;default:Новое;index"`
	AssignedTo *string         `gorm:"size:64;index"`
	ChatLog    []TicketMessage `gorm:"serializer:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppendMessage records one turn in the ticket's chat log.
func (t *Ticket) AppendMessage(userID, text string, at time.Time) {
	t.ChatLog = append(t.ChatLog, TicketMessage{Timestamp: at, UserID: userID, Text: text})
}

// Active reports whether the ticket counts toward a specialist's workload.
func (t *Ticket) Active() bool {
	switch t.Status {
	case StatusNew, StatusInProgress, StatusWaitingResponse:
		return true
	}
	return false
}

// Assignable reports whether the ticket belongs in the assignment backlog.
func (t *Ticket) Assignable() bool {
	return t.Status == StatusNew || t.Status == StatusWaitingResponse
}
