package commands

import (
	"fmt"
	"time"

	"github.com/openfroyo/streamd/pkg/plugin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		strict      bool
		delay       time.Duration
		metricsAddr string
		events      string
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Rebuild components whenever a configuration file changes",
		Long: `Load a configuration file, then reload it each time it is written.

Every reload is parsed and configured from scratch. A failed reload is
reported and the previous configuration stays in effect.`,
		Example: `  # Watch a configuration and expose metrics
  streamd watch --metrics-addr :9090 /etc/streamd/agent.conf

  # Stream reload outcomes and warnings as JSON lines
  streamd watch --events warning agent.conf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg := telemetryConfig()
			cfg.Events.EnableAsync = true
			if metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.ListenAddress = metricsAddr
			}

			ctx, tel, catalog, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdown(tel)

			if err := subscribeEvents(tel, cmd.OutOrStdout(), events); err != nil {
				return err
			}

			if err := tel.StartMetricsServer(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}

			var opts []plugin.BuildOption
			if strict {
				opts = append(opts, plugin.WithStrict())
			}

			initial, err := catalog.Load(ctx, path, opts...)
			if err != nil {
				return err
			}
			tel.Metrics.SetComponentCount(float64(len(initial.Components)))
			log.Info().
				Str("path", path).
				Int("components", len(initial.Components)).
				Msg("Configuration loaded, watching for changes")

			err = catalog.Watch(ctx, path, delay, func(p *plugin.Pipeline, err error) {
				if err != nil {
					log.Error().Err(err).Msg("Reload failed, keeping previous configuration")
					return
				}
				log.Info().
					Int("components", len(p.Components)).
					Int("unused", len(p.Unused)).
					Msg("Configuration reloaded")
			}, opts...)
			if err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "reject unclosed blocks and unused parameters")
	cmd.Flags().DurationVar(&delay, "delay", 0, "debounce delay before reloading (default 500ms)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&events, "events", "", "print events at or above this level (info, warning, error)")

	return cmd
}
