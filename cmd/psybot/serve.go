package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psyline/psybot/internal/adapter"
	discordadapter "github.com/psyline/psybot/internal/adapter/discord"
	slackadapter "github.com/psyline/psybot/internal/adapter/slack"
	"github.com/psyline/psybot/internal/ai"
	"github.com/psyline/psybot/internal/bot"
	"github.com/psyline/psybot/internal/config"
	"github.com/psyline/psybot/internal/dashboard"
	"github.com/psyline/psybot/internal/db"
	"github.com/psyline/psybot/internal/digest"
	"github.com/psyline/psybot/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot on all enabled platforms",
		Long:  "Connects the enabled chat adapters, starts the backlog digest and the dashboard, and processes messages until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "psybot.yaml", "path to psybot config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	sessions := store.NewSessionStore(gormDB)
	tickets := store.NewTicketStore(gormDB)
	roles := store.NewRoleDirectory(gormDB, cfg.AdminIDs)

	memory, err := ai.NewMemoryStore(cfg.AI.MemoryStorePath)
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	aiService, err := ai.NewService(ai.ServiceOpts{
		Completer: ai.NewOpenAIClient(cfg.AI),
		Memory:    memory,
		Config:    cfg.AI,
	})
	if err != nil {
		return err
	}

	service, err := bot.NewService(bot.ServiceOpts{
		Sessions: sessions,
		Tickets:  tickets,
		Roles:    roles,
		AI:       aiService,
	})
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("serve: no adapter enabled, enable discord or slack in %s", configPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(adapters)+1)

	for name, a := range adapters {
		runner, err := bot.NewRunner(bot.RunnerOpts{Adapter: a, Service: service})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Starting %s adapter\n", name)
		go func(name string) {
			if err := runner.Run(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}(name)
	}

	if cfg.Digest.Enabled {
		d, err := digest.New(digest.Opts{
			Tickets:   tickets,
			Roles:     roles,
			Adapter:   digestAdapter(adapters),
			ChannelID: cfg.Digest.ChannelID,
			Schedule:  cfg.Digest.Schedule,
		})
		if err != nil {
			return err
		}
		if err := d.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Backlog digest scheduled (%s)\n", cfg.Digest.Schedule)
	}

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				Tickets: tickets,
				Roles:   roles,
				Addr:    cfg.Dashboard.Listen,
				Out:     out,
			})
			if err != nil {
				errCh <- err
			}
		}()
	}

	fmt.Fprintln(out, "Psybot is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		log.Printf("serve: shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

// buildAdapters creates one adapter per enabled platform, keyed by name.
func buildAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.Discord.Enabled {
		a, err := discordadapter.New(discordadapter.AdapterOpts{BotToken: cfg.Discord.BotToken})
		if err != nil {
			return nil, err
		}
		adapters["discord"] = a
	}
	if cfg.Slack.Enabled {
		a, err := slackadapter.New(slackadapter.AdapterOpts{
			AppToken: cfg.Slack.AppToken,
			BotToken: cfg.Slack.BotToken,
		})
		if err != nil {
			return nil, err
		}
		adapters["slack"] = a
	}
	return adapters, nil
}

// digestAdapter picks the adapter the digest posts through. Discord wins
// when both platforms are enabled.
func digestAdapter(adapters map[string]adapter.Adapter) adapter.Adapter {
	if a, ok := adapters["discord"]; ok {
		return a
	}
	for _, a := range adapters {
		return a
	}
	return nil
}
