package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"telereport/internal/config"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// statsCmd shows the counter store
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the report counter without connecting",
	RunE:  showStats,
}

// initCmd writes the default config
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file into the data directory",
	RunE:  runInit,
}

func showStats(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load()
	if err != nil {
		return err
	}

	collector := newCollector(cfg)
	tenure := collector.Tenure(snap.Started())

	out := cmd.OutOrStdout()
	row := func(label, value string) {
		fmt.Fprintln(out, labelStyle.Render(label)+valueStyle.Render(value))
	}
	row("Store", cfg.Stats.Backend+" "+cfg.StatsPath(dataDir))
	row("First run", snap.Started().In(cfg.GetLocation()).Format(time.RFC3339))
	row("Reports", fmt.Sprintf("%d", snap.ReportCount))
	row("Tenure", fmt.Sprintf("%d days (%s)", tenure.Value.Days, tenure.Value.Source))
	row("Plugins", fmt.Sprintf("%d", collector.Extensions().Value))
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", configPath)
		return nil
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	return nil
}
