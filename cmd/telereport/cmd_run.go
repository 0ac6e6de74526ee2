package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"telereport/internal/config"
	"telereport/internal/telegram"
)

// runCmd listens for the report command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for the report command in outgoing messages",
	Long: `Connects with the stored session and answers every outgoing message that
starts with <prefix><name> by editing it into the annual report.

The config file is watched; command name and prefixes can change without a
restart.`,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctrl, store, err := newController(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := newTelegramClient(cfg)
	if err != nil {
		return err
	}

	matcher := telegram.NewMatcher(cfg.Command.Name, cfg.Command.Prefixes)

	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		matcher.Update(next.Command.Name, next.Command.Prefixes)
		logger.Info("Command reconfigured",
			zap.String("name", next.Command.Name),
			zap.Strings("prefixes", next.Command.Prefixes))
	})
	if err != nil {
		logger.Warn("Config watch disabled", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("Config watch disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	fmt.Fprintln(cmd.ErrOrStderr(), helpText(cfg.Command.Prefixes[0], cfg.Command.Name))
	logger.Info("Listening", zap.String("command", cfg.Command.Name))

	err = client.Listen(ctx, matcher, func(ctx context.Context, s *telegram.Session, msg *telegram.Editor) {
		out, err := ctrl.Handle(ctx, s, msg)
		if err != nil {
			logger.Warn("Report failed", zap.String("req", out.RequestID), zap.Error(err))
			return
		}
		logger.Info("Report delivered",
			zap.String("req", out.RequestID),
			zap.Int("report_count", out.Stats.ReportCount),
			zap.Strings("degraded", out.Degraded))
	})
	if ctx.Err() != nil {
		logger.Info("Shutting down")
		return nil
	}
	return err
}
