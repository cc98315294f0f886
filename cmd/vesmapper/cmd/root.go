package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/vesmapper/internal/core/catalog"
	"github.com/solatis/vesmapper/internal/core/config"
	"github.com/solatis/vesmapper/internal/logging"
	"github.com/solatis/vesmapper/internal/rules"
)

// Version is the vesmapper release.
const Version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "vesmapper",
	Short:         "VES mapping-rules validator and translator",
	Long:          `vesmapper validates SNMP-to-VES mapping-rules documents and translates them into processing pipelines for the event collector.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("db-url", "", "catalog database URL (sqlite://path or postgres://...)")
	flags.String("catalog", "", "YAML catalog file")
	flags.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", d.Log.Format, "log format (json, text)")
	flags.Int("max-depth", d.Rules.MaxConditionDepth, "maximum condition nesting depth")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// environment is what every subcommand builds from config and flags.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *rules.Engine
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	engine := rules.NewEngine(
		rules.WithMaxConditionDepth(cfg.Rules.MaxConditionDepth),
		rules.WithLogger(logger),
	)
	return &environment{cfg: cfg, logger: logger, engine: engine}, nil
}

// openCatalog opens the configured catalog. With required=false and no
// catalog configured it returns a nil provider.
func (e *environment) openCatalog(required bool) (catalog.Provider, func() error, error) {
	if !e.cfg.HasCatalog() {
		if required {
			return nil, nil, fmt.Errorf("a catalog is required: set --catalog or --db-url")
		}
		return nil, func() error { return nil }, nil
	}
	return catalog.Open(e.cfg.Catalog)
}
