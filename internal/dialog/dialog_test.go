package dialog

import (
	"strconv"
	"strings"
	"testing"

	"github.com/psyline/psybot/internal/models"
)

func TestMenuOptionsTransition(t *testing.T) {
	tests := []struct {
		input string
		want  models.State
	}{
		{"1", models.StateFormTopic},
		{"Консультация со специалистом", models.StateFormTopic},
		{"2", models.StateAIChat},
		{"3", models.StateTerms},
		{"4", models.StatePsyQuestion},
	}

	m := NewMachine()
	for _, tt := range tests {
		s := models.NewSession("u1")
		res := m.Process(s, tt.input)
		if res.Session.State != tt.want {
			t.Errorf("Process(%q) state = %s, want %s", tt.input, res.Session.State, tt.want)
		}
	}
}

func TestMenuUnknownInputStaysInMenu(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")

	res := m.Process(s, "что-то непонятное")
	if res.Session.State != models.StateMenu {
		t.Errorf("state = %s, want MENU", res.Session.State)
	}
	if res.Reply != MenuText {
		t.Errorf("reply = %q, want menu text", res.Reply)
	}
}

func TestFormWalkthrough(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")

	res := m.Process(s, "1")
	res = m.Process(res.Session, "Депрессия")
	if res.Session.Form.Topic != "Депрессия" {
		t.Fatalf("topic = %q", res.Session.Form.Topic)
	}
	if res.Session.State != models.StateFormGender {
		t.Fatalf("state after topic = %s", res.Session.State)
	}

	res = m.Process(res.Session, "Мужской")
	res = m.Process(res.Session, "30")
	if res.Session.Form.Age != 30 {
		t.Fatalf("age = %d", res.Session.Form.Age)
	}

	res = m.Process(res.Session, "3")
	if res.Session.Form.Severity != models.SeverityHigh {
		t.Fatalf("severity = %s", res.Session.Form.Severity)
	}

	res = m.Process(res.Session, "Нужна помощь")
	if res.Session.State != models.StateMenu {
		t.Errorf("state after message = %s, want MENU", res.Session.State)
	}
	if !res.Session.Form.IsComplete() {
		t.Error("form should be complete")
	}
	if !strings.Contains(res.Reply, TicketCreated) {
		t.Errorf("reply should confirm the ticket, got %q", res.Reply)
	}
	if !strings.Contains(res.Reply, MenuText) {
		t.Error("reply should include the menu")
	}
}

func TestAgeValidation(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateFormAge

	res := m.Process(s, "тридцать")
	if res.Reply != AgeNotANumber {
		t.Errorf("non-numeric age reply = %q", res.Reply)
	}
	if res.Session.State != models.StateFormAge {
		t.Errorf("state changed on invalid age: %s", res.Session.State)
	}

	res = m.Process(s, "121")
	if res.Reply != AgeOutOfRange {
		t.Errorf("out-of-range age reply = %q", res.Reply)
	}

	res = m.Process(s, "0")
	if res.Reply != AgeOutOfRange {
		t.Errorf("zero age reply = %q", res.Reply)
	}

	// Both boundaries are accepted.
	for _, age := range []int{1, 120} {
		res = m.Process(s, strconv.Itoa(age))
		if res.Reply != FormSeverityPrompt {
			t.Errorf("age %d reply = %q, want the severity prompt", age, res.Reply)
		}
		if res.Session.Form.Age != age || res.Session.State != models.StateFormSeverity {
			t.Errorf("age %d: form = %+v, state = %s", age, res.Session.Form, res.Session.State)
		}
	}
}

func TestSeverityReask(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateFormSeverity

	res := m.Process(s, "5")
	if res.Reply != SeverityReask {
		t.Errorf("reply = %q, want reask", res.Reply)
	}
	if res.Session.State != models.StateFormSeverity {
		t.Errorf("state = %s, want FORM_SEVERITY", res.Session.State)
	}

	res = m.Process(s, "Критическая")
	if res.Session.Form.Severity != models.SeverityCritical {
		t.Errorf("severity = %s", res.Session.Form.Severity)
	}
}

func TestMenuCommandResetsFormAndPagination(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateFormSeverity
	s.Form.Topic = "Тревога"
	s.AIContext = []models.ChatTurn{{Role: "user", Content: "привет"}}
	s.PaginationOffset = 10

	res := m.Process(s, "/menu")
	if res.Session.State != models.StateMenu {
		t.Errorf("state = %s, want MENU", res.Session.State)
	}
	if res.Session.Form.Topic != "" {
		t.Error("form should be reset")
	}
	if res.Session.PaginationOffset != 0 {
		t.Error("pagination offset should be reset")
	}
	// The AI conversation survives /menu; only /clear drops it.
	if len(res.Session.AIContext) != 1 {
		t.Error("ai context should survive /menu")
	}
}

func TestClearCommandInAIChat(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateAIChat
	s.AIContext = []models.ChatTurn{{Role: "user", Content: "привет"}}

	res := m.Process(s, "/clear")
	if !res.ClearedAI {
		t.Error("ClearedAI should be set")
	}
	if len(res.Session.AIContext) != 0 {
		t.Error("ai context should be empty")
	}
	if res.Session.State != models.StateAIChat {
		t.Errorf("state = %s, want AI_CHAT", res.Session.State)
	}
}

func TestClearCommandOutsideAIChatIsOrdinaryInput(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateFormTopic

	res := m.Process(s, "/clear")
	if res.ClearedAI {
		t.Error("ClearedAI should not be set outside AI chat")
	}
	// The text is consumed as the form answer.
	if res.Session.Form.Topic != "/clear" {
		t.Errorf("topic = %q", res.Session.Form.Topic)
	}
}

func TestStartCommandInMenuShowsWelcome(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")

	res := m.Process(s, "/start")
	if !strings.Contains(res.Reply, WelcomeText) {
		t.Error("reply should contain the welcome text")
	}
	if res.Session.State != models.StateMenu {
		t.Errorf("state = %s, want MENU", res.Session.State)
	}
}

func TestTermsReturnsToMenu(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StateTerms

	res := m.Process(s, "ок")
	if res.Session.State != models.StateMenu {
		t.Errorf("state = %s, want MENU", res.Session.State)
	}
}

func TestPsyQuestionEchoesAndReturns(t *testing.T) {
	m := NewMachine()
	s := models.NewSession("u1")
	s.State = models.StatePsyQuestion

	res := m.Process(s, "Что такое выгорание?")
	if res.Session.State != models.StateMenu {
		t.Errorf("state = %s, want MENU", res.Session.State)
	}
	if !strings.Contains(res.Reply, "Что такое выгорание?") {
		t.Error("reply should echo the question")
	}
}

func TestWantsAI(t *testing.T) {
	s := models.NewSession("u1")
	s.State = models.StateAIChat

	if !WantsAI(s, "мне грустно") {
		t.Error("plain text in AI chat should be an AI turn")
	}
	if WantsAI(s, "/menu") || WantsAI(s, "/clear") {
		t.Error("/menu and /clear are not AI turns")
	}
	if !WantsAI(s, "/start") || !WantsAI(s, "start") {
		t.Error("the start override applies in the menu only; mid-chat it is an ordinary turn")
	}

	s.State = models.StateMenu
	if WantsAI(s, "мне грустно") {
		t.Error("only AI_CHAT produces AI turns")
	}
}

func TestCommandPredicatesTolerateCase(t *testing.T) {
	for _, msg := range []string{"/menu", "MENU", " Menu ", "/MENU"} {
		if !IsMenuCommand(msg) {
			t.Errorf("IsMenuCommand(%q) = false", msg)
		}
	}
	if IsMenuCommand("menus") {
		t.Error("IsMenuCommand should not match prefixes")
	}
}
