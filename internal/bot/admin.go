package bot

import (
	"errors"
	"strings"

	"github.com/psyline/psybot/internal/assign"
	"github.com/psyline/psybot/internal/dialog"
	"github.com/psyline/psybot/internal/models"
	"github.com/psyline/psybot/internal/store"
)

// handleAdmin processes one message inside the admin panel.
func (s *Service) handleAdmin(sess models.Session, text string) (models.Session, string, error) {
	if dialog.IsMenuCommand(text) {
		sess.GoToMenu()
		return sess, backToMenuText + dialog.MenuText, nil
	}
	if dialog.IsStartCommand(text) {
		sess.State = models.StateAdminMenu
		sess.PaginationOffset = 0
		sess.TicketPageOffset = 0
		sess.SelectedTicketID = nil
		return sess, adminMenuText, nil
	}

	switch sess.State {
	case models.StateAdminMenu:
		return s.handleAdminMenu(sess, text)
	case models.StateAdminManagePsychologists:
		return s.handleManagePsychologists(sess, text)
	case models.StateAdminDemoteSelect:
		return s.handleDemoteSelect(sess, text)
	case models.StateAdminAssignTicketSelect:
		return s.handleAssignTicketSelect(sess, text)
	case models.StateAdminAssignPsychoSelect:
		return s.handleAssignPsychoSelect(sess, text)
	}
	return sess, adminMenuText, nil
}

func (s *Service) handleAdminMenu(sess models.Session, text string) (models.Session, string, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "1", "назначить заявку":
		backlog, err := s.assignmentBacklog()
		if err != nil {
			return sess, "", err
		}
		sess.State = models.StateAdminAssignTicketSelect
		sess.PaginationOffset = 0
		return sess, assign.RenderTicketsPage(backlog, 0), nil
	case "2", "управление психологами":
		sess.State = models.StateAdminManagePsychologists
		return sess, managePsychologistsPrompt, nil
	case "3", "снять психолога":
		sess.State = models.StateAdminDemoteSelect
		sess.PaginationOffset = 0
		page, err := s.renderDemotePage(0)
		if err != nil {
			return sess, "", err
		}
		return sess, page, nil
	case "4", "обычное меню":
		sess.GoToMenu()
		return sess, backToMenuText + dialog.MenuText, nil
	default:
		return sess, adminMenuText, nil
	}
}

// handleManagePsychologists promotes a user given a numeric id or @handle.
func (s *Service) handleManagePsychologists(sess models.Session, text string) (models.Session, string, error) {
	input := strings.TrimSpace(text)
	if cmd, _ := assign.ParseCommand(input); cmd == assign.CmdExit {
		sess.State = models.StateAdminMenu
		return sess, adminMenuText, nil
	}

	var (
		profile models.UserProfile
		err     error
	)
	if handle, ok := strings.CutPrefix(input, "@"); ok {
		profile, err = s.roles.FindByUsername(handle)
	} else {
		profile, err = s.roles.Get(input)
	}
	if errors.Is(err, store.ErrNotFound) {
		return sess, promoteNotFound, nil
	}
	if err != nil {
		return sess, "", err
	}

	switch profile.Role {
	case models.RoleAdmin:
		return sess, promoteAdminRefused, nil
	case models.RolePsychologist:
		return sess, promoteAlreadyAssigned, nil
	}

	if _, err := s.roles.Promote(profile.UserID); err != nil {
		return sess, "", err
	}
	sess.State = models.StateAdminMenu
	return sess, promoteDone + "\n\n" + adminMenuText, nil
}

// handleDemoteSelect runs the paginated demote picker. Picks index the same
// workload-ranked slice the page was rendered from.
func (s *Service) handleDemoteSelect(sess models.Session, text string) (models.Session, string, error) {
	ranked, err := s.rankedPsychologists()
	if err != nil {
		return sess, "", err
	}

	cmd, n := assign.ParseCommand(text)
	switch cmd {
	case assign.CmdExit:
		sess.State = models.StateAdminMenu
		sess.PaginationOffset = 0
		return sess, adminMenuText, nil
	case assign.CmdNext, assign.CmdPrev:
		var notice string
		sess.PaginationOffset, notice = stepPage(sess.PaginationOffset, len(ranked), cmd)
		return sess, notice + renderDemoteList(ranked, sess.PaginationOffset), nil
	case assign.CmdPick:
		idx := sess.PaginationOffset + n - 1
		if idx >= len(ranked) {
			return sess, assign.NotFoundNotice, nil
		}
		ok, err := s.roles.Demote(ranked[idx].Profile.UserID)
		if err != nil {
			return sess, "", err
		}
		reply := demoteDone
		if !ok {
			reply = demoteFailed
		}
		sess.State = models.StateAdminMenu
		sess.PaginationOffset = 0
		return sess, reply + "\n\n" + adminMenuText, nil
	default:
		return sess, assign.UsageHint, nil
	}
}

// handleAssignTicketSelect is step one of the two-step assignment picker.
func (s *Service) handleAssignTicketSelect(sess models.Session, text string) (models.Session, string, error) {
	backlog, err := s.assignmentBacklog()
	if err != nil {
		return sess, "", err
	}

	cmd, n := assign.ParseCommand(text)
	switch cmd {
	case assign.CmdExit:
		sess.State = models.StateAdminMenu
		sess.PaginationOffset = 0
		return sess, adminMenuText, nil
	case assign.CmdNext, assign.CmdPrev:
		var notice string
		sess.PaginationOffset, notice = stepPage(sess.PaginationOffset, len(backlog), cmd)
		return sess, notice + assign.RenderTicketsPage(backlog, sess.PaginationOffset), nil
	case assign.CmdPick:
		idx := sess.PaginationOffset + n - 1
		if idx >= len(backlog) {
			return sess, assign.NotFoundNotice, nil
		}
		ticket := backlog[idx]
		sess.SelectedTicketID = &ticket.ID
		sess.TicketPageOffset = sess.PaginationOffset
		sess.PaginationOffset = 0
		sess.State = models.StateAdminAssignPsychoSelect
		page, err := s.renderPsychologistsPage(ticket, 0)
		if err != nil {
			return sess, "", err
		}
		return sess, page, nil
	default:
		return sess, assign.UsageHint, nil
	}
}

// handleAssignPsychoSelect is step two: picking the specialist.
func (s *Service) handleAssignPsychoSelect(sess models.Session, text string) (models.Session, string, error) {
	cmd, n := assign.ParseCommand(text)
	switch cmd {
	case assign.CmdExit:
		// Step back to the ticket picker at the page it was left on.
		backlog, err := s.assignmentBacklog()
		if err != nil {
			return sess, "", err
		}
		sess.State = models.StateAdminAssignTicketSelect
		sess.PaginationOffset = sess.TicketPageOffset
		sess.SelectedTicketID = nil
		return sess, assign.RenderTicketsPage(backlog, sess.PaginationOffset), nil
	case assign.CmdNext, assign.CmdPrev:
		ranked, err := s.rankedPsychologists()
		if err != nil {
			return sess, "", err
		}
		ticket, err := s.selectedTicket(sess)
		if err != nil {
			return sess, "", err
		}
		var notice string
		sess.PaginationOffset, notice = stepPage(sess.PaginationOffset, len(ranked), cmd)
		return sess, notice + assign.RenderPsychologistsPage(ticket, ranked, sess.PaginationOffset), nil
	case assign.CmdPick:
		ranked, err := s.rankedPsychologists()
		if err != nil {
			return sess, "", err
		}
		idx := sess.PaginationOffset + n - 1
		if idx >= len(ranked) {
			return sess, assign.NotFoundNotice, nil
		}
		reply := assignDone
		if sess.SelectedTicketID == nil {
			reply = assignFailed
		} else {
			ok, err := s.AssignTicket(*sess.SelectedTicketID, ranked[idx].Profile.UserID)
			if err != nil {
				return sess, "", err
			}
			if !ok {
				reply = assignFailed
			}
		}
		sess.State = models.StateAdminMenu
		sess.PaginationOffset = 0
		sess.TicketPageOffset = 0
		sess.SelectedTicketID = nil
		return sess, reply + "\n\n" + adminMenuText, nil
	default:
		return sess, assign.UsageHint, nil
	}
}

// stepPage advances or rewinds a picker offset, clamped to the list bounds.
// The returned notice is non-empty when the edge was already reached.
func stepPage(offset, total int, cmd assign.Command) (int, string) {
	switch cmd {
	case assign.CmdNext:
		if offset+assign.PageSize >= total {
			return offset, assign.LastPageNotice + "\n\n"
		}
		return offset + assign.PageSize, ""
	case assign.CmdPrev:
		if offset == 0 {
			return 0, assign.FirstPageNotice + "\n\n"
		}
		return offset - assign.PageSize, ""
	}
	return offset, ""
}

func (s *Service) assignmentBacklog() ([]models.Ticket, error) {
	tickets, err := s.tickets.GetAll()
	if err != nil {
		return nil, err
	}
	return assign.Backlog(tickets), nil
}

func (s *Service) rankedPsychologists() ([]assign.Workload, error) {
	psychologists, err := s.roles.ListByRole(models.RolePsychologist)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.GetAll()
	if err != nil {
		return nil, err
	}
	return assign.ByWorkload(psychologists, tickets), nil
}

func (s *Service) selectedTicket(sess models.Session) (models.Ticket, error) {
	if sess.SelectedTicketID == nil {
		return models.Ticket{}, nil
	}
	ticket, err := s.tickets.Get(*sess.SelectedTicketID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Ticket{}, nil
	}
	return ticket, err
}

func (s *Service) renderDemotePage(offset int) (string, error) {
	ranked, err := s.rankedPsychologists()
	if err != nil {
		return "", err
	}
	return renderDemoteList(ranked, offset), nil
}

func renderDemoteList(ranked []assign.Workload, offset int) string {
	if len(ranked) == 0 {
		return noPsychologists
	}
	return assign.RenderPsychologistsPage(models.Ticket{Topic: "снятие роли"}, ranked, offset)
}

func (s *Service) renderPsychologistsPage(ticket models.Ticket, offset int) (string, error) {
	ranked, err := s.rankedPsychologists()
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return noPsychologists, nil
	}
	return assign.RenderPsychologistsPage(ticket, ranked, offset), nil
}
