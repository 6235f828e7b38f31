package bot

import (
	"fmt"
	"strings"

	"github.com/psyline/psybot/internal/dialog"
	"github.com/psyline/psybot/internal/models"
)

// handlePsychologist processes one message inside the specialist panel.
func (s *Service) handlePsychologist(sess models.Session, text string) (models.Session, string, error) {
	if dialog.IsMenuCommand(text) {
		sess.GoToMenu()
		return sess, backToMenuText + dialog.MenuText, nil
	}
	if dialog.IsStartCommand(text) {
		sess.State = models.StatePsyMenu
		return sess, psyMenuText, nil
	}

	switch sess.State {
	case models.StatePsyMenu:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "1", "мои заявки":
			sess.State = models.StatePsyTicketsList
			list, err := s.renderAssignedTickets(sess.UserID)
			if err != nil {
				return sess, "", err
			}
			return sess, list, nil
		case "2", "обычное меню":
			sess.GoToMenu()
			return sess, backToMenuText + dialog.MenuText, nil
		default:
			return sess, psyMenuText, nil
		}
	case models.StatePsyTicketsList:
		sess.State = models.StatePsyMenu
		return sess, psyMenuText, nil
	}
	return sess, psyMenuText, nil
}

// renderAssignedTickets lists the specialist's open tickets, newest first.
func (s *Service) renderAssignedTickets(specialistID string) (string, error) {
	tickets, err := s.tickets.GetAssigned(specialistID)
	if err != nil {
		return "", err
	}
	if len(tickets) == 0 {
		return noAssignedTickets, nil
	}

	var b strings.Builder
	b.WriteString("📋 Ваши заявки:\n\n")
	for i, t := range tickets {
		fmt.Fprintf(&b, "%d. [%s] %s — %s, %s\n",
			i+1, t.Severity, t.Topic, t.Status, t.CreatedAt.Format("02.01.2006"))
	}
	b.WriteString("\nОтправьте любое сообщение, чтобы вернуться в панель.")
	return b.String(), nil
}
