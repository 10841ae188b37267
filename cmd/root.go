package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/bibresolve/internal/config"
	"github.com/lehigh-university-libraries/bibresolve/internal/metrics"
	"github.com/lehigh-university-libraries/bibresolve/internal/resolver"
	"github.com/lehigh-university-libraries/bibresolve/internal/sources"
	"github.com/lepinkainen/humanlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel   string
	logJSON    bool
	configPath string
	timeout    time.Duration
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "bibresolve",
		Short: "Resolve books to metadata and library classifications",
		Long: `bibresolve identifies a book from an ISBN or a title and author and
returns its descriptive metadata together with Library of Congress, Dewey
Decimal and UDC classifications gathered from public library catalogs.

Basic metadata comes from the first catalog that knows the ISBN. Every
applicable classification catalog is then queried concurrently and the most
specific value per scheme wins.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return initLogging(opts.logLevel, opts.logJSON)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Emit JSON logs instead of human readable ones")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML file with per-source overrides")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-source request timeout (default 20s, max 30s)")

	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func initLogging(level string, asJSON bool) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}

	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = humanlog.NewHandler(os.Stderr, &humanlog.Options{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig layers the config file and flags over the environment.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if o.configPath != "" {
		if err := cfg.LoadFile(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.timeout > 0 {
		cfg.SetTimeout(o.timeout)
	}
	return cfg, nil
}

// newComposer wires every enabled catalog into a composer. reg may be nil,
// in which case metrics are not recorded.
func (o *globalOptions) newComposer(reg prometheus.Registerer) (*resolver.Composer, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	registry := sources.NewRegistry(cfg, sources.NewHTTPClient(), m)
	slog.Debug("Catalogs configured",
		"metadata", len(registry.Metadata),
		"classification", len(registry.Classifications),
		"timeout", cfg.Timeout)

	return resolver.New(registry, resolver.WithMetrics(m)), cfg, nil
}
