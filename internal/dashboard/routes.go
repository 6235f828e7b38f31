package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psyline/psybot/internal/assign"
	"github.com/psyline/psybot/internal/models"
	"github.com/psyline/psybot/internal/store"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, tickets *store.TicketStore, roles *store.RoleDirectory) {
	router.GET("/healthz", handleHealthz())
	router.GET("/api/backlog", handleBacklog(tickets))
	router.GET("/api/workload", handleWorkload(tickets, roles))
	router.GET("/api/tickets/:id", handleTicketDetail(tickets))
}

func handleHealthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// backlogRow is one unassigned ticket in priority order.
type backlogRow struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Severity  string `json:"severity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func handleBacklog(tickets *store.TicketStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := tickets.GetAll()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		backlog := assign.Backlog(all)
		rows := make([]backlogRow, 0, len(backlog))
		for _, t := range backlog {
			rows = append(rows, backlogRow{
				ID:        t.ID,
				Topic:     t.Topic,
				Severity:  string(t.Severity),
				Status:    string(t.Status),
				CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		c.JSON(http.StatusOK, gin.H{"count": len(rows), "tickets": rows})
	}
}

// workloadRow is one specialist with their active ticket count.
type workloadRow struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Active      int    `json:"active"`
}

func handleWorkload(tickets *store.TicketStore, roles *store.RoleDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		psychologists, err := roles.ListByRole(models.RolePsychologist)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		all, err := tickets.GetAll()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ranked := assign.ByWorkload(psychologists, all)
		rows := make([]workloadRow, 0, len(ranked))
		for _, w := range ranked {
			rows = append(rows, workloadRow{
				UserID:      w.Profile.UserID,
				DisplayName: w.Profile.DisplayName(),
				Active:      w.Active,
			})
		}
		c.JSON(http.StatusOK, gin.H{"count": len(rows), "specialists": rows})
	}
}

func handleTicketDetail(tickets *store.TicketStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := tickets.Get(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
