package store

import (
	"errors"
	"fmt"

	"github.com/psyline/psybot/internal/models"
	"gorm.io/gorm"
)

// TicketStore persists consultation tickets. Tickets are never deleted.
type TicketStore struct {
	db *gorm.DB
}

// NewTicketStore creates a TicketStore.
func NewTicketStore(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

// Create inserts a new ticket and returns it.
func (s *TicketStore) Create(t models.Ticket) (models.Ticket, error) {
	if err := s.db.Create(&t).Error; err != nil {
		return models.Ticket{}, fmt.Errorf("store: create ticket %s: %w", t.ID, err)
	}
	return t, nil
}

// Get loads a ticket by id. Returns ErrNotFound for unknown ids.
func (s *TicketStore) Get(id string) (models.Ticket, error) {
	var t models.Ticket
	err := s.db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Ticket{}, ErrNotFound
	}
	if err != nil {
		return models.Ticket{}, fmt.Errorf("store: get ticket %s: %w", id, err)
	}
	return t, nil
}

// GetAll returns all tickets ordered by creation time descending.
func (s *TicketStore) GetAll() ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: list tickets: %w", err)
	}
	return tickets, nil
}

// GetByUser returns all tickets created by the given user, newest first.
func (s *TicketStore) GetByUser(userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: list tickets for %s: %w", userID, err)
	}
	return tickets, nil
}

// GetAssigned returns the tickets assigned to the given specialist, newest
// first.
func (s *TicketStore) GetAssigned(specialistID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("assigned_to = ?", specialistID).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: list tickets assigned to %s: %w", specialistID, err)
	}
	return tickets, nil
}

// Update saves the full ticket row.
func (s *TicketStore) Update(t models.Ticket) error {
	if err := s.db.Save(&t).Error; err != nil {
		return fmt.Errorf("store: update ticket %s: %w", t.ID, err)
	}
	return nil
}
