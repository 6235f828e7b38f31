package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psyline/psybot/internal/ai"
	"github.com/psyline/psybot/internal/bot"
	"github.com/psyline/psybot/internal/config"
	"github.com/psyline/psybot/internal/db"
	"github.com/psyline/psybot/internal/store"
)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal",
		Long: `Starts a local REPL against the configured database. Useful for trying
the dialog without a chat platform.

REPL commands:
  /user <id>   switch to another user identity
  /tickets     list all tickets
  /quit        exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, userID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "psybot.yaml", "path to psybot config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "local", "user id to chat as")
	return cmd
}

// echoCompleter stands in for the AI backend when no API key is configured.
type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, req ai.Request) (string, error) {
	return "Я слушаю. Расскажи подробнее.", nil
}

func runChat(cmd *cobra.Command, configPath, userID string) error {
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

	var completer ai.Completer = echoCompleter{}
	if cfg.AI.APIKey != "" {
		completer = ai.NewOpenAIClient(cfg.AI)
	} else {
		fmt.Fprintln(out, "No AI api_key configured, using canned replies.")
	}

	memory, err := ai.NewMemoryStore(cfg.AI.MemoryStorePath)
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	aiService, err := ai.NewService(ai.ServiceOpts{
		Completer:        completer,
		Memory:           memory,
		Config:           cfg.AI,
		DisableRateLimit: true,
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

	fmt.Fprintf(out, "Chatting as %q. Type /quit to exit.\n\n", userID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "%s> ", userID)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/user "):
			userID = strings.TrimSpace(strings.TrimPrefix(line, "/user "))
			fmt.Fprintf(out, "Now chatting as %q.\n", userID)
			continue
		case line == "/tickets":
			if err := printTickets(out, tickets); err != nil {
				return err
			}
			continue
		}

		reply, err := service.ProcessMessage(cmd.Context(), userID, line, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", reply)
	}
}

func printTickets(out io.Writer, tickets *store.TicketStore) error {
	all, err := tickets.GetAll()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(out, "No tickets yet.")
		return nil
	}
	for _, t := range all {
		assigned := "-"
		if t.AssignedTo != nil {
			assigned = *t.AssignedTo
		}
		fmt.Fprintf(out, "%s  [%s] %s  status=%s assigned=%s\n",
			t.ID[:8], t.Severity, t.Topic, t.Status, assigned)
	}
	return nil
}
