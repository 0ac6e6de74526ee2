package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"telereport/internal/report"
	"telereport/internal/telegram"
)

// loginCmd authorizes the session
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Telegram and store the session",
	Long: `Runs the phone code login flow and writes the session file into the data
directory. The phone number comes from telegram.phone or is prompted for;
the login code and the 2FA password are always prompted for.`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.HasCredentials() {
		return telegram.ErrMissingCredentials
	}
	client, err := newTelegramClient(cfg)
	if err != nil {
		return err
	}

	authn := telegram.NewPromptAuth(cfg.Telegram.Phone, cmd.InOrStdin(), cmd.ErrOrStderr())
	self, err := client.Login(ctx, authn)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	logger.Info("Logged in", zap.Int64("user_id", self.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", report.Identity{Username: self.Username, FirstName: self.FirstName, LastName: self.LastName}.DisplayName())
	return nil
}
