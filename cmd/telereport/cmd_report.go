package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"telereport/internal/annual"
	"telereport/internal/report"
	"telereport/internal/telegram"
	"telereport/internal/terminal"
)

var sendReport bool

// reportCmd generates one report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the annual report once",
	Long: `Connects, generates the report and prints it to the terminal.

With --send the report is posted to Saved Messages instead, using the same
status message and in-place edit as the chat command.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, timeout)
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

	return client.Do(ctx, func(ctx context.Context, s *telegram.Session) error {
		if sendReport {
			editor, err := s.SendToSelf(ctx, report.LoadingText)
			if err != nil {
				return err
			}
			return logOutcome(ctrl.Handle(ctx, s, editor))
		}

		printer := terminal.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
		err := logOutcome(ctrl.Handle(ctx, s, printer))
		if flushErr := printer.Flush(); err == nil {
			err = flushErr
		}
		return err
	})
}

func logOutcome(out annual.Outcome, err error) error {
	if err != nil {
		return err
	}
	logger.Info("Report generated",
		zap.String("req", out.RequestID),
		zap.Int("report_count", out.Stats.ReportCount),
		zap.Strings("degraded", out.Degraded))
	return nil
}
