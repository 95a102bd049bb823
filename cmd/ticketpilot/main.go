package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alekspetrov/ticketpilot/internal/bot"
	"github.com/alekspetrov/ticketpilot/internal/config"
	"github.com/alekspetrov/ticketpilot/internal/jira"
	"github.com/alekspetrov/ticketpilot/internal/logging"
	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/telegram"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ticketpilot",
		Short: "Jira issue tracking from Telegram",
		Long:  `TicketPilot is a Telegram bot that turns chat messages into Jira issues: quick one-line creation, guided wizards, and a local issue cache.`,
	}

	rootCmd.AddCommand(
		newStartCmd(),
		newInitCmd(),
		newAdminCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", configPath, err)
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "path to config file")
	return cmd
}

func run(cfg *config.Config) error {
	if err := logging.Init(cfg.Logging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.WithComponent("main")

	st, err := store.NewStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	remote := jira.NewClient(
		cfg.Jira.BaseURL,
		cfg.Jira.Username,
		cfg.Jira.APIToken,
		cfg.Jira.Platform,
		cfg.Jira.RetryAttempts,
		time.Duration(cfg.Jira.RetryDelaySec*float64(time.Second)),
	)

	resolver := bot.NewResolver(
		cfg.Access.AllowedUsers,
		cfg.Access.AdminUsers,
		cfg.Access.SuperAdminUsers,
	)

	dispatcher := bot.NewDispatcher(st, remote, resolver,
		time.Duration(cfg.Bot.SessionTimeoutHours)*time.Hour)

	scheduler, err := bot.NewScheduler(dispatcher, cfg.Bot.SweepIntervalMin, cfg.Bot.SyncSchedule)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	transport := telegram.NewTransport(
		telegram.NewClient(cfg.Telegram.BotToken),
		dispatcher,
		cfg.Telegram.PollTimeout,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start()
	transport.StartPolling(ctx)
	log.Info("TicketPilot started")
	fmt.Println("🤖 TicketPilot is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n🛑 Shutting down...")
	cancel()
	transport.Stop()
	scheduler.Stop()
	log.Info("TicketPilot stopped")
	return nil
}

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config already exists at %s", configPath)
			}

			cfg := config.DefaultConfig()
			cfg.Telegram.BotToken = "${TELEGRAM_BOT_TOKEN}"
			cfg.Jira.BaseURL = "https://your-domain.atlassian.net"
			cfg.Jira.Username = "${JIRA_USERNAME}"
			cfg.Jira.APIToken = "${JIRA_API_TOKEN}"

			if err := config.Save(cfg, configPath); err != nil {
				return err
			}
			fmt.Printf("🔧 Config written to %s\nFill in the Telegram and Jira credentials, then run: ticketpilot start\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "path to config file")
	return cmd
}

func newAdminCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the configured admin list",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "path to config file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <user_id>",
			Short: "Add a user ID to the admin list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editAdmins(configPath, args[0], true)
			},
		},
		&cobra.Command{
			Use:   "remove <user_id>",
			Short: "Remove a user ID from the admin list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editAdmins(configPath, args[0], false)
			},
		},
	)
	return cmd
}

func editAdmins(configPath, userID string, add bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	admins := cfg.Access.AdminUsers
	filtered := admins[:0]
	for _, id := range admins {
		if id != userID {
			filtered = append(filtered, id)
		}
	}

	switch {
	case add && len(filtered) == len(admins):
		filtered = append(filtered, userID)
		fmt.Printf("✅ %s added to admins\n", userID)
	case add:
		fmt.Printf("%s is already an admin\n", userID)
		return nil
	case len(filtered) == len(admins):
		fmt.Printf("%s is not an admin\n", userID)
		return nil
	default:
		fmt.Printf("✅ %s removed from admins\n", userID)
	}

	cfg.Access.AdminUsers = filtered
	return config.Save(cfg, configPath)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show TicketPilot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TicketPilot v%s\n", version)
		},
	}
}
