package commands

import (
	"encoding/json"
	"fmt"

	"github.com/openfroyo/streamd/pkg/plugin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var (
		strict bool
		tags   []string
		events string
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an agent configuration file",
		Long: `Parse an agent configuration file and configure every component in it.

This command checks:
  - Block structure (every <name> closed by </name>)
  - Component types named by each <source> and <match> block
  - Required parameters and parameter values
  - Parameters that no component reads (warnings, or errors with --strict)`,
		Example: `  # Validate a configuration
  streamd validate /etc/streamd/agent.conf

  # Fail on unclosed blocks and unused parameters
  streamd validate --strict agent.conf

  # Show which output receives a tag
  streamd validate --route app.access agent.conf

  # Print unused-parameter warnings and errors as JSON lines
  streamd validate --events warning agent.conf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			log.Debug().
				Str("path", path).
				Bool("strict", strict).
				Msg("Validating configuration")

			ctx, tel, catalog, err := setup(cmd.Context(), telemetryConfig())
			if err != nil {
				return err
			}
			defer shutdown(tel)

			if err := subscribeEvents(tel, cmd.OutOrStdout(), events); err != nil {
				return err
			}

			var opts []plugin.BuildOption
			if strict {
				opts = append(opts, plugin.WithStrict())
			}

			p, err := catalog.Load(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("%s is invalid: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			fmt.Fprintf(out, "%s: %d components (%d inputs, %d outputs)\n",
				p.Source, len(p.Components), len(p.Inputs()), len(p.Outputs()))
			for _, comp := range p.Components {
				label := comp.Type
				if comp.Pattern != "" {
					label += " " + comp.Pattern
				}
				fmt.Fprintf(out, "  %-6s %s\n", comp.Kind, label)
			}
			if len(p.Unused) > 0 {
				fmt.Fprintf(out, "%d unused parameters\n", len(p.Unused))
			}
			for _, tag := range tags {
				if comp, ok := p.Route(tag); ok {
					fmt.Fprintf(out, "route %s -> %s %s\n", tag, comp.Type, comp.Pattern)
				} else {
					fmt.Fprintf(out, "route %s -> (none)\n", tag)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "reject unclosed blocks and unused parameters")
	cmd.Flags().StringSliceVar(&tags, "route", nil, "report the output that receives each tag")
	cmd.Flags().StringVar(&events, "events", "", "print events at or above this level (info, warning, error)")

	return cmd
}
