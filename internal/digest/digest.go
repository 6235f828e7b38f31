// Package digest posts a scheduled backlog summary to the admin channel.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/psyline/psybot/internal/adapter"
	"github.com/psyline/psybot/internal/assign"
	"github.com/psyline/psybot/internal/models"
	"github.com/psyline/psybot/internal/store"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Digest builds and delivers backlog summaries on a cron schedule.
type Digest struct {
	tickets   *store.TicketStore
	roles     *store.RoleDirectory
	adapter   adapter.Adapter
	channelID string
	schedule  string
	cron      *cron.Cron
	now       func() time.Time
}

// Opts holds parameters for creating a Digest.
type Opts struct {
	Tickets   *store.TicketStore
	Roles     *store.RoleDirectory
	Adapter   adapter.Adapter
	ChannelID string // admin channel the summary is posted to
	Schedule  string // 5-field cron expression
	// For testing: override the clock.
	Now func() time.Time
}

// New creates a Digest. The schedule is validated up front so a bad
// expression fails at startup instead of silently never firing.
func New(opts Opts) (*Digest, error) {
	if opts.Tickets == nil {
		return nil, fmt.Errorf("digest: ticket store is required")
	}
	if opts.Roles == nil {
		return nil, fmt.Errorf("digest: role directory is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("digest: adapter is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("digest: channel id is required")
	}
	if _, err := cronParser.Parse(opts.Schedule); err != nil {
		return nil, fmt.Errorf("digest: parse schedule %q: %w", opts.Schedule, err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Digest{
		tickets:   opts.Tickets,
		roles:     opts.Roles,
		adapter:   opts.Adapter,
		channelID: opts.ChannelID,
		schedule:  opts.Schedule,
		now:       now,
	}, nil
}

// Start schedules the digest and runs it until the context is cancelled.
func (d *Digest) Start(ctx context.Context) error {
	d.cron = cron.New(cron.WithParser(cronParser))
	_, err := d.cron.AddFunc(d.schedule, func() {
		if err := d.Post(ctx); err != nil {
			log.Printf("digest: post: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("digest: schedule: %w", err)
	}
	d.cron.Start()

	go func() {
		<-ctx.Done()
		d.cron.Stop()
	}()
	return nil
}

// Post builds the summary and sends it to the admin channel. An empty
// backlog suppresses the post entirely.
func (d *Digest) Post(ctx context.Context) error {
	text, ok, err := d.Build()
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("digest: backlog empty, skipping")
		return nil
	}
	return d.adapter.Send(ctx, adapter.Outbound{ChannelID: d.channelID, Text: text})
}

// Build renders the current backlog and workload summary. The second return
// is false when there is nothing to report.
func (d *Digest) Build() (string, bool, error) {
	tickets, err := d.tickets.GetAll()
	if err != nil {
		return "", false, fmt.Errorf("digest: load tickets: %w", err)
	}
	backlog := assign.Backlog(tickets)
	if len(backlog) == 0 {
		return "", false, nil
	}

	psychologists, err := d.roles.ListByRole(models.RolePsychologist)
	if err != nil {
		return "", false, fmt.Errorf("digest: load psychologists: %w", err)
	}
	ranked := assign.ByWorkload(psychologists, tickets)

	return render(d.now(), backlog, ranked), true, nil
}

// render formats the daily summary.
func render(now time.Time, backlog []models.Ticket, ranked []assign.Workload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Сводка за %s\n\n", now.Format("02.01.2006"))
	fmt.Fprintf(&b, "Неназначенных заявок: %d\n", len(backlog))

	counts := map[models.Severity]int{}
	for _, t := range backlog {
		counts[t.Severity]++
	}
	for _, sev := range []models.Severity{
		models.SeverityCritical, models.SeverityHigh,
		models.SeverityMedium, models.SeverityLow,
	} {
		if n := counts[sev]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", sev, n)
		}
	}

	oldest := backlog[0]
	for _, t := range backlog {
		if t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	fmt.Fprintf(&b, "\nСамая старая заявка: «%s» от %s\n", oldest.Topic, oldest.CreatedAt.Format("02.01.2006"))

	if len(ranked) == 0 {
		b.WriteString("\n⚠️ Психологов нет, заявки назначать некому.")
		return b.String()
	}

	b.WriteString("\nЗагрузка психологов:\n")
	for _, w := range ranked {
		fmt.Fprintf(&b, "  %s: %d в работе\n", w.Profile.DisplayName(), w.Active)
	}
	return b.String()
}
