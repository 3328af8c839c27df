package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/plugin"
	"github.com/spf13/cobra"
)

type paramInfo struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

func newParamsCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "params [type]",
		Short: "List component types and their parameters",
		Example: `  # List all component types
  streamd params

  # Show the parameters of the file output
  streamd params file

  # Disambiguate a type name used by both kinds
  streamd params forward --kind input`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := telemetryConfig()
			cfg.Logging.Level = "error"

			_, tel, catalog, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdown(tel)

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return listTypes(out, catalog)
			}

			kinds := []plugin.Kind{plugin.KindInput, plugin.KindOutput}
			if kind != "" {
				kinds = []plugin.Kind{plugin.Kind(kind)}
			}

			found := false
			for _, k := range kinds {
				desc, schema, ok := catalog.Lookup(k, args[0])
				if !ok {
					continue
				}
				found = true
				if err := printParams(out, catalog, desc, schema); err != nil {
					return err
				}
			}
			if !found {
				return fmt.Errorf("%w: %q", plugin.ErrUnknownType, args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "component kind (input, output)")

	return cmd
}

func listTypes(out io.Writer, catalog *plugin.Catalog) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.List())
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "KIND\tTYPE\tINHERITS\tSECTIONS")
	for _, d := range catalog.List() {
		typeName := d.Type
		if d.Abstract {
			typeName += " (abstract)"
		}
		chain := catalog.Ancestry(d.Kind, d.Type)
		inherits := strings.Join(chain[:len(chain)-1], " > ")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Kind, typeName, dash(inherits), dash(strings.Join(d.Sections, ", ")))
	}
	return nil
}

func printParams(out io.Writer, catalog *plugin.Catalog, desc plugin.Descriptor, schema *config.Schema) error {
	params := describeSchema(schema)

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"kind":   desc.Kind,
			"type":   desc.Type,
			"params": params,
		})
	}

	fmt.Fprintf(out, "%s %s\n", desc.Kind, desc.Type)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tTYPE\tDEFAULT")
	for _, p := range params {
		def := "(required)"
		if p.Default != nil {
			def = fmt.Sprintf("%v", p.Default)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", p.Name, p.Type, def)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, name := range desc.Sections {
		section, ok := catalog.Section(desc.Kind, desc.Type, name)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  <%s>\n", name)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range describeSchema(section) {
			def := "(required)"
			if p.Default != nil {
				def = fmt.Sprintf("%v", p.Default)
			}
			fmt.Fprintf(w, "    %s\t%s\t%s\n", p.Name, p.Type, def)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func describeSchema(schema *config.Schema) []paramInfo {
	var params []paramInfo
	for _, spec := range schema.Params() {
		info := paramInfo{Name: spec.Name, Type: string(spec.Type())}
		if info.Type == "" {
			info.Type = "custom"
		}
		if v, ok := schema.Default(spec.Name); ok {
			info.Default = v
		}
		params = append(params, info)
	}
	return params
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
