// Package dashboard serves a read-only JSON API with the assignment backlog
// and specialist workload for operators.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psyline/psybot/internal/store"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Tickets *store.TicketStore
	Roles   *store.RoleDirectory
	Addr    string
	Out     io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Tickets == nil {
		return fmt.Errorf("dashboard: ticket store is required")
	}
	if opts.Roles == nil {
		return fmt.Errorf("dashboard: role directory is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8642"
	}

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: NewRouter(opts.Tickets, opts.Roles),
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the dashboard router without binding a listener. Used by
// tests and by Start.
func NewRouter(tickets *store.TicketStore, roles *store.RoleDirectory) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, tickets, roles)
	return router
}
