// Package bot implements the message router: it resolves the caller's role,
// dispatches to the right handler set, persists the mutated session and
// creates tickets when the intake form completes.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psyline/psybot/internal/ai"
	"github.com/psyline/psybot/internal/dialog"
	"github.com/psyline/psybot/internal/models"
	"github.com/psyline/psybot/internal/store"
)

// Service is the orchestrator behind every inbound message.
type Service struct {
	sessions *store.SessionStore
	tickets  *store.TicketStore
	roles    *store.RoleDirectory
	machine  *dialog.Machine
	ai       *ai.Service

	locks *userLocks
	now   func() time.Time
	newID func() string
}

// ServiceOpts holds parameters for creating a Service.
type ServiceOpts struct {
	Sessions *store.SessionStore
	Tickets  *store.TicketStore
	Roles    *store.RoleDirectory
	AI       *ai.Service
	// Now and NewID override the clock and ticket id generator, for tests.
	Now   func() time.Time
	NewID func() string
}

// NewService creates a Service.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("bot: service: session store is required")
	}
	if opts.Tickets == nil {
		return nil, fmt.Errorf("bot: service: ticket store is required")
	}
	if opts.Roles == nil {
		return nil, fmt.Errorf("bot: service: role directory is required")
	}
	if opts.AI == nil {
		return nil, fmt.Errorf("bot: service: ai service is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		sessions: opts.Sessions,
		tickets:  opts.Tickets,
		roles:    opts.Roles,
		machine:  dialog.NewMachine(),
		ai:       opts.AI,
		locks:    newUserLocks(),
		now:      now,
		newID:    newID,
	}, nil
}

// ProcessMessage handles one inbound message and returns exactly one reply.
// Messages for the same user id are serialized; a store failure aborts the
// request without a partial session write.
func (s *Service) ProcessMessage(ctx context.Context, userID, text string, meta *store.UserMeta) (string, error) {
	mu := s.locks.acquire(userID)

	profile, err := s.roles.GetOrCreate(userID, meta)
	if err != nil {
		mu.Unlock()
		return "", err
	}

	sess, err := s.sessions.Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		sess = models.NewSession(userID)
	} else if err != nil {
		mu.Unlock()
		return "", err
	}

	// Role-gated handlers intercept before the ordinary state machine; a
	// privileged user outside their panel falls through like anyone else.
	adminTurn := profile.Role == models.RoleAdmin && (sess.State.IsAdmin() || dialog.IsStartCommand(text))
	psyTurn := profile.Role == models.RolePsychologist && (sess.State.IsPsychologist() || dialog.IsStartCommand(text))

	// AI conversation turns release the session lock while the completion
	// call is in flight; everything else runs under the lock start to end.
	if !adminTurn && !psyTurn && dialog.WantsAI(sess, text) {
		return s.processAITurn(ctx, mu, sess, text)
	}
	defer mu.Unlock()

	prev := sess.State
	var reply string

	switch {
	case adminTurn:
		sess, reply, err = s.handleAdmin(sess, text)
		if err != nil {
			return "", err
		}
	case psyTurn:
		sess, reply, err = s.handlePsychologist(sess, text)
		if err != nil {
			return "", err
		}
	default:
		res := s.machine.Process(sess, text)
		sess, reply = res.Session, res.Reply
		if res.ClearedAI {
			s.ai.ClearUser(userID)
		}
	}

	// A completed intake form becomes a ticket exactly once, on the
	// FORM_MESSAGE -> MENU transition.
	if prev == models.StateFormMessage && sess.State == models.StateMenu && sess.Form.IsComplete() {
		ticket, err := s.createTicket(sess)
		if err != nil {
			return "", err
		}
		sess.CurrentTicketID = &ticket.ID
		sess.ResetForm()
		log.Printf("bot: ticket %s created for user %s [severity=%s]", ticket.ID, userID, ticket.Severity)
	}

	if err := s.sessions.Save(sess); err != nil {
		return "", err
	}
	return reply, nil
}

// processAITurn commits the user turn, releases the session lock for the
// duration of the completion call, then re-acquires it to append the
// assistant turn. mu must be held on entry and is released on return.
func (s *Service) processAITurn(ctx context.Context, mu *sync.Mutex, sess models.Session, text string) (string, error) {
	userID := sess.UserID
	history := append([]models.ChatTurn(nil), sess.AIContext...)

	sess.AppendAITurn("user", text)
	if err := s.sessions.Save(sess); err != nil {
		mu.Unlock()
		return "", err
	}
	mu.Unlock()

	reply := s.ai.Reply(ctx, userID, text, history)

	mu.Lock()
	defer mu.Unlock()
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return "", err
	}
	sess.AppendAITurn("assistant", reply)
	if err := s.sessions.Save(sess); err != nil {
		return "", err
	}
	return reply, nil
}

// createTicket instantiates a ticket from the session's completed form.
func (s *Service) createTicket(sess models.Session) (models.Ticket, error) {
	return s.tickets.Create(models.Ticket{
		ID:        s.newID(),
		UserID:    sess.UserID,
		Topic:     sess.Form.Topic,
		Gender:    sess.Form.Gender,
		Age:       sess.Form.Age,
		Severity:  sess.Form.Severity,
		Message:   sess.Form.Message,
		Status:    models.StatusNew,
		CreatedAt: s.now(),
	})
}

// AssignTicket assigns a ticket to a specialist and forces it into work.
// Returns false when the ticket does not exist.
func (s *Service) AssignTicket(ticketID, specialistID string) (bool, error) {
	ticket, err := s.tickets.Get(ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ticket.AssignedTo = &specialistID
	ticket.Status = models.StatusInProgress
	if err := s.tickets.Update(ticket); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateTicketStatus sets a ticket's status label. Returns false when the
// ticket does not exist.
func (s *Service) UpdateTicketStatus(ticketID string, status models.TicketStatus) (bool, error) {
	ticket, err := s.tickets.Get(ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ticket.Status = status
	if err := s.tickets.Update(ticket); err != nil {
		return false, err
	}
	return true, nil
}

// AddTicketMessage appends one turn to a ticket's chat log. Returns false
// when the ticket does not exist.
func (s *Service) AddTicketMessage(ticketID, userID, text string) (bool, error) {
	ticket, err := s.tickets.Get(ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ticket.AppendMessage(userID, text, s.now())
	if err := s.tickets.Update(ticket); err != nil {
		return false, err
	}
	return true, nil
}
