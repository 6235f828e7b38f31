package models

import "time"

// AIContextLimit caps the stored AI conversation at 10 exchanges.
const AIContextLimit = 20

// ChatTurn is one turn of the AI conversation.
type ChatTurn struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ConsultationForm is the multi-step intake form filled in before a ticket
// is created. Zero values mean "not answered yet".
type ConsultationForm struct {
	Topic    string   `gorm:"size:256"`
	Gender   string   `gorm:"size:32"`
	Age      int      `gorm:"default:0"`
	Severity Severity `gorm:"size:32"`
	Message  string   `gorm:"type:text"`
}

// IsComplete reports whether all five form fields have been answered.
func (f ConsultationForm) IsComplete() bool {
	return f.Topic != "" && f.Gender != "" && f.Age != 0 && f.Severity != "" && f.Message != ""
}

// Session is the per-user conversational state. One row per user id; every
// inbound message is a read-modify-write of this row.
type Session struct {
	UserID           string           `gorm:"primaryKey;size:64"`
	State            State            `gorm:"size:40;not null;default:MENU"`
	Form             ConsultationForm `gorm:"embedded;embeddedPrefix:form_"`
	AIContext        []ChatTurn       `gorm:"serializer:json"`
	CurrentTicketID  *string          `gorm:"size:36"`
	SelectedTicketID *string          `gorm:"size:36"`
	PaginationOffset int              `gorm:"default:0"`
	// TicketPageOffset remembers the ticket-picker page while the admin is
	// inside the psychologist picker, so "exit" returns to the same page.
	TicketPageOffset int `gorm:"default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSession returns a fresh session in the main menu.
func NewSession(userID string) Session {
	return Session{UserID: userID, State: StateMenu}
}

// ResetForm clears all intake form fields.
func (s *Session) ResetForm() {
	s.Form = ConsultationForm{}
}

// ClearAIContext drops the stored AI conversation.
func (s *Session) ClearAIContext() {
	s.AIContext = nil
}

// GoToMenu resets the session to the main menu: form cleared, pagination
// and ticket selection dropped.
func (s *Session) GoToMenu() {
	s.State = StateMenu
	s.ResetForm()
	s.PaginationOffset = 0
	s.TicketPageOffset = 0
	s.SelectedTicketID = nil
}

// AppendAITurn adds a turn to the AI context and truncates it to the most
// recent AIContextLimit entries.
func (s *Session) AppendAITurn(role, content string) {
	s.AIContext = append(s.AIContext, ChatTurn{Role: role, Content: content})
	if len(s.AIContext) > AIContextLimit {
		s.AIContext = s.AIContext[len(s.AIContext)-AIContextLimit:]
	}
}
