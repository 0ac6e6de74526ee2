package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"telereport/internal/config"
	"telereport/internal/logging"
)

var (
	// Global flags
	verbose    bool
	dataDir    string
	configPath string
	timeout    time.Duration

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:          "telereport",
	Short:        "📊 年度报告插件",
	Long:         rootDescription(config.DefaultConfig()),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		resolvePaths()
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		cmd.Root().Long = rootDescription(cfg)

		if err := logging.Initialize(dataDir, cfg.Logging.Options()); err != nil {
			logger.Warn("category logging disabled", zap.Error(err))
		}
		if logging.IsDebugMode() {
			logger.Debug("Category logs enabled", zap.String("dir", filepath.Join(dataDir, "logs")))
		}
		logging.Boot("data dir %s, config %s", dataDir, configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// resolvePaths fills the data dir and config path defaults.
func resolvePaths() {
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	if configPath == "" {
		configPath = filepath.Join(dataDir, config.ConfigFileName)
	}
}

// rootDescription is the long help, naming the first configured prefix.
func rootDescription(c *config.Config) string {
	prefix := "."
	if len(c.Command.Prefixes) > 0 {
		prefix = c.Command.Prefixes[0]
	}
	return helpText(prefix, c.Command.Name) + `

telereport signs in to your Telegram account, listens for the report command
in your outgoing messages and replaces it with an annual summary: tenure,
installed plugins, chat composition, blocked list size and a quote.`
}

// refreshDescription reloads the config so help shows the configured
// command. Load errors keep the current text.
func refreshDescription() {
	resolvePaths()
	if c, err := config.Load(configPath); err == nil {
		rootCmd.Long = rootDescription(c)
	}
}

// helpText is the command description shown in help and on startup.
func helpText(prefix, name string) string {
	return "📊 年度报告插件\n\n使用 " + prefix + name + " 生成您的Telegram年度报告"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: "+config.DefaultDataDir+")")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <data-dir>/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for one-shot commands")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		refreshDescription()
		defaultHelp(cmd, args)
	})

	reportCmd.Flags().BoolVar(&sendReport, "send", false, "Post the report to Saved Messages instead of printing it")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
