package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/psyline/psybot/internal/adapter"
	"github.com/psyline/psybot/internal/store"
)

// Runner pumps inbound messages from a platform adapter through the bot
// service and delivers replies back. One Runner per adapter; concurrent
// messages are handled in separate goroutines, per-user ordering is the
// service's job.
type Runner struct {
	adapter adapter.Adapter
	service *Service
}

// RunnerOpts holds parameters for creating a Runner.
type RunnerOpts struct {
	Adapter adapter.Adapter
	Service *Service
}

// NewRunner creates a Runner.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: runner adapter is required")
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("bot: runner service is required")
	}
	return &Runner{adapter: opts.Adapter, service: opts.Service}, nil
}

// Run connects the adapter and processes inbound messages until the context
// is cancelled or the inbound channel closes.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect adapter: %w", err)
	}

	inbound, err := r.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: listen: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return r.adapter.Close()
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			go r.handle(ctx, msg)
		}
	}
}

// handle processes one inbound message and sends the reply back to the
// channel it arrived from.
func (r *Runner) handle(ctx context.Context, msg adapter.Inbound) {
	if msg.UserID == "" || msg.Text == "" {
		return
	}

	meta := &store.UserMeta{
		Username:  msg.Username,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
	}

	reply, err := r.service.ProcessMessage(ctx, msg.UserID, msg.Text, meta)
	if err != nil {
		log.Printf("bot: process message from %s: %v", msg.UserID, err)
		return
	}
	if reply == "" {
		return
	}

	out := adapter.Outbound{
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Text:      reply,
	}
	if err := r.adapter.Send(ctx, out); err != nil {
		log.Printf("bot: send reply to %s: %v", msg.UserID, err)
	}
}
