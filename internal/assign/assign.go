// Package assign implements the ticket assignment engine: the sorted
// backlog, the workload ranking of psychologists and the paginated picker
// grammar and rendering shared by the two selection states.
package assign

import (
	"sort"

	"github.com/psyline/psybot/internal/models"
)

// Backlog filters tickets to those eligible for assignment (Новое or
// Ожидание ответа) and sorts them by severity (Критическая first), breaking
// ties by creation time ascending. The sort is stable.
func Backlog(tickets []models.Ticket) []models.Ticket {
	var backlog []models.Ticket
	for _, t := range tickets {
		if t.Assignable() {
			backlog = append(backlog, t)
		}
	}
	sort.SliceStable(backlog, func(i, j int) bool {
		ki, kj := backlog[i].Severity.SortKey(), backlog[j].Severity.SortKey()
		if ki != kj {
			return ki < kj
		}
		return backlog[i].CreatedAt.Before(backlog[j].CreatedAt)
	})
	return backlog
}

// Workload pairs a psychologist with their active ticket count.
type Workload struct {
	Profile models.UserProfile
	Active  int
}

// ByWorkload ranks psychologists by their number of active tickets (Новое,
// В работе or Ожидание ответа assigned to them), fewest first. Ties keep
// the input order.
func ByWorkload(psychologists []models.UserProfile, tickets []models.Ticket) []Workload {
	counts := make(map[string]int, len(psychologists))
	for _, t := range tickets {
		if t.AssignedTo != nil && t.Active() {
			counts[*t.AssignedTo]++
		}
	}
	ranked := make([]Workload, 0, len(psychologists))
	for _, p := range psychologists {
		ranked = append(ranked, Workload{Profile: p, Active: counts[p.UserID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Active < ranked[j].Active
	})
	return ranked
}
