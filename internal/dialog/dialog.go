// Package dialog implements the finite-state machine that drives the
// ordinary-user conversation: main menu, the five-step intake form, AI chat
// entry and the static info screens.
package dialog

import (
	"strconv"
	"strings"

	"github.com/psyline/psybot/internal/models"
)

// Machine processes one message against a session. Transitions are value in,
// value out: the caller persists the returned session.
type Machine struct{}

// NewMachine creates a Machine.
func NewMachine() *Machine {
	return &Machine{}
}

// IsMenuCommand reports whether msg is the global go-home command.
func IsMenuCommand(msg string) bool {
	m := strings.ToLower(strings.TrimSpace(msg))
	return m == "/menu" || m == "menu"
}

// IsClearCommand reports whether msg is the AI-context clear command.
func IsClearCommand(msg string) bool {
	m := strings.ToLower(strings.TrimSpace(msg))
	return m == "/clear" || m == "clear"
}

// IsStartCommand reports whether msg is the start/greeting command.
func IsStartCommand(msg string) bool {
	m := strings.ToLower(strings.TrimSpace(msg))
	return m == "/start" || m == "start"
}

// WantsAI reports whether the message is an AI conversation turn: the
// session sits in AI_CHAT and the message is neither /menu nor /clear.
// The start override applies in the menu only; "start" typed mid-chat is
// an ordinary turn. The router handles AI turns itself so that no session
// lock is held while the completion call is in flight.
func WantsAI(s models.Session, msg string) bool {
	return s.State == models.StateAIChat &&
		!IsMenuCommand(msg) && !IsClearCommand(msg)
}

// Result is the outcome of one transition. ClearedAI is set when the user
// cleared the AI context, so the router can also wipe the external AI
// memory and rate state.
type Result struct {
	Session   models.Session
	Reply     string
	ClearedAI bool
}

// Process handles one message for an ordinary user. AI conversation turns
// (see WantsAI) must not be passed here.
func (m *Machine) Process(s models.Session, msg string) Result {
	// Global overrides, regardless of state.
	if IsMenuCommand(msg) {
		s.GoToMenu()
		return Result{Session: s, Reply: MenuText}
	}
	if IsClearCommand(msg) && s.State == models.StateAIChat {
		s.ClearAIContext()
		return Result{Session: s, Reply: ContextCleared + AIChatText, ClearedAI: true}
	}
	if IsStartCommand(msg) && s.State == models.StateMenu {
		return Result{Session: s, Reply: WelcomeText + MenuText}
	}

	switch s.State {
	case models.StateMenu:
		return m.handleMenu(s, msg)
	case models.StateFormTopic:
		s.Form.Topic = msg
		s.State = models.StateFormGender
		return Result{Session: s, Reply: FormGenderPrompt}
	case models.StateFormGender:
		s.Form.Gender = msg
		s.State = models.StateFormAge
		return Result{Session: s, Reply: FormAgePrompt}
	case models.StateFormAge:
		return m.handleAge(s, msg)
	case models.StateFormSeverity:
		return m.handleSeverity(s, msg)
	case models.StateFormMessage:
		s.Form.Message = msg
		s.State = models.StateMenu
		return Result{Session: s, Reply: TicketCreated + MenuText}
	case models.StateAIChat:
		// Only commands reach the machine in AI_CHAT; anything else is a
		// misrouted turn, re-show the chat screen.
		return Result{Session: s, Reply: AIChatText}
	case models.StateTerms:
		s.State = models.StateMenu
		return Result{Session: s, Reply: MenuText}
	case models.StatePsyQuestion:
		reply := "❓ Ваш вопрос: " + msg + "\n\n" +
			"Спасибо за вопрос! Специалист ответит на него в ближайшее время.\n\n" + MenuText
		s.State = models.StateMenu
		return Result{Session: s, Reply: reply}
	}

	return Result{Session: s, Reply: UnknownCommand}
}

func (m *Machine) handleMenu(s models.Session, msg string) Result {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "1", "консультация со специалистом":
		s.State = models.StateFormTopic
		return Result{Session: s, Reply: FormTopicPrompt}
	case "2", "консультация с ии":
		s.State = models.StateAIChat
		return Result{Session: s, Reply: AIChatText}
	case "3", "условия обращения":
		s.State = models.StateTerms
		return Result{Session: s, Reply: TermsText}
	case "4", "вопрос по психологии":
		s.State = models.StatePsyQuestion
		return Result{Session: s, Reply: PsyQuestionText}
	default:
		return Result{Session: s, Reply: MenuText}
	}
}

func (m *Machine) handleAge(s models.Session, msg string) Result {
	age, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil {
		return Result{Session: s, Reply: AgeNotANumber}
	}
	if age < 1 || age > 120 {
		return Result{Session: s, Reply: AgeOutOfRange}
	}
	s.Form.Age = age
	s.State = models.StateFormSeverity
	return Result{Session: s, Reply: FormSeverityPrompt}
}

func (m *Machine) handleSeverity(s models.Session, msg string) Result {
	severity, ok := models.ParseSeverity(msg)
	if !ok {
		return Result{Session: s, Reply: SeverityReask}
	}
	s.Form.Severity = severity
	s.State = models.StateFormMessage
	return Result{Session: s, Reply: FormMessagePrompt}
}
