package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telereport/internal/config"
)

func setupTestEnv(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	dataDir = t.TempDir()
	configPath = filepath.Join(dataDir, config.ConfigFileName)
	cfg = config.DefaultConfig()
	cfg.Paths.Root = t.TempDir()
}

func runCommand(t *testing.T, fn func(*cobra.Command, []string) error) string {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, fn(cmd, nil))
	return out.String()
}

func TestHelpText(t *testing.T) {
	assert.Equal(t, "📊 年度报告插件\n\n使用 .annualreport 生成您的Telegram年度报告", helpText(".", "annualreport"))
	assert.Contains(t, rootCmd.Long, "使用 .annualreport 生成您的Telegram年度报告")
}

func TestRefreshDescription_UsesConfiguredPrefix(t *testing.T) {
	setupTestEnv(t)
	orig := rootCmd.Long
	t.Cleanup(func() { rootCmd.Long = orig })

	c := config.DefaultConfig()
	c.Command.Prefixes = []string{"!", "."}
	require.NoError(t, c.Save(configPath))

	refreshDescription()
	assert.Contains(t, rootCmd.Long, "使用 !annualreport 生成您的Telegram年度报告")
	assert.NotContains(t, rootCmd.Long, "使用 .annualreport")
}

func TestShowStats_FreshStore(t *testing.T) {
	setupTestEnv(t)

	output := runCommand(t, showStats)
	assert.Contains(t, output, "Reports")
	assert.Contains(t, output, "0 days (first_run)")

	_, err := os.Stat(cfg.StatsPath(dataDir))
	assert.NoError(t, err, "stats record should be created on first use")
}

func TestShowStats_SQLite(t *testing.T) {
	setupTestEnv(t)
	cfg.Stats.Backend = "sqlite"

	output := runCommand(t, showStats)
	assert.Contains(t, output, "sqlite")
	assert.FileExists(t, filepath.Join(dataDir, "assets", "annualreport", "stats.db"))
}

func TestRunInit(t *testing.T) {
	setupTestEnv(t)

	output := runCommand(t, runInit)
	assert.Contains(t, output, "Wrote")

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "annualreport", loaded.Command.Name)

	output = runCommand(t, runInit)
	assert.Contains(t, output, "already exists")
}

func TestNewController_RejectsBadProxy(t *testing.T) {
	setupTestEnv(t)
	cfg.Telegram.Proxy = "gopher://127.0.0.1:70"

	_, _, err := newController(cfg)
	assert.Error(t, err)
}

func TestRunLogin_RequiresCredentials(t *testing.T) {
	setupTestEnv(t)

	err := runLogin(&cobra.Command{}, nil)
	assert.Error(t, err)
}
