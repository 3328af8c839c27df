package commands

import (
	"encoding/json"
	"fmt"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDumpCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print a parsed configuration file",
		Long: `Parse a configuration file and print the resulting element tree.

The text format is the canonical nested-block form: comments and blank lines
are dropped and blocks are re-indented.`,
		Example: `  # Normalize a configuration file
  streamd dump agent.conf

  # Inspect the tree as YAML
  streamd dump --format yaml agent.conf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ReadFile(args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				format = "json"
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				// Attributes before blocks, as Element.Serialize writes them.
				for _, key := range root.Keys() {
					v, _ := root.Get(key)
					fmt.Fprintf(out, "%s %s\n", key, v)
				}
				for _, child := range root.Children {
					fmt.Fprint(out, child)
				}
				return nil
			case "yaml":
				data, err := yaml.Marshal(root)
				if err != nil {
					return fmt.Errorf("failed to encode YAML: %w", err)
				}
				_, err = out.Write(data)
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(root)
			default:
				return fmt.Errorf("unsupported format %q (must be text, yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, yaml, json)")

	return cmd
}
