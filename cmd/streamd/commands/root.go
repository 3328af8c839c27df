package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/openfroyo/streamd/pkg/plugin"
	"github.com/openfroyo/streamd/pkg/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose       bool
	jsonOutput    bool
	traceExporter string
	otlpEndpoint  string

	serviceVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	serviceVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "streamd",
		Short: "streamd - configuration tooling for the streamd agent",
		Long: `streamd reads the agent's nested-block configuration files, configures
every <source> and <match> component from them and reports problems.

Features:
  - Parse errors located by file and line
  - Typed, inherited parameter schemas for built-in components
  - Warnings for parameters that nothing reads
  - Live reload with Prometheus metrics and OpenTelemetry traces`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "none", "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "localhost:4317", "OTLP collector endpoint")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newParamsCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// telemetryConfig builds the telemetry configuration from the global flags.
func telemetryConfig() *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = serviceVersion
	cfg.Metrics.Enabled = false
	cfg.Events.EnableAsync = false

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}
	if traceExporter != "none" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = traceExporter
		cfg.Tracing.Endpoint = otlpEndpoint
	}
	return cfg
}

// setup creates telemetry and the built-in catalog for a command.
func setup(ctx context.Context, cfg *telemetry.Config) (context.Context, *telemetry.Telemetry, *plugin.Catalog, error) {
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	catalog, err := plugin.NewDefaultCatalog(tel.Logger)
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("failed to register built-in components: %w", err)
	}

	return tel.WithContext(ctx), tel, catalog, nil
}

// shutdown flushes telemetry, logging rather than returning failures.
func shutdown(tel *telemetry.Telemetry) {
	if err := tel.Shutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
}

// subscribeEvents writes events at or above minLevel to w as JSON lines.
// An empty level leaves events unsubscribed.
func subscribeEvents(tel *telemetry.Telemetry, w io.Writer, minLevel string) error {
	switch minLevel {
	case "":
		return nil
	case telemetry.EventLevelInfo, telemetry.EventLevelWarning, telemetry.EventLevelError:
		tel.Events.Subscribe(telemetry.WriterSubscriber(w), telemetry.FilterByLevel(minLevel))
		return nil
	default:
		return fmt.Errorf("invalid event level %q (must be info, warning or error)", minLevel)
	}
}
