package graph

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/kettle/cmd/session"
)

type graphOptions struct {
	format string
	label  string
}

// NewCommand returns the graph command.
func NewCommand(v *viper.Viper) *cobra.Command {
	opts := &graphOptions{format: formatters.OutputFormatDOT.String()}

	cmd := &cobra.Command{
		Use:   "graph <name>...",
		Short: "Print the resolved dependency graph of targets",
		Long: `Resolve the named targets and print the dependency chain as a graph.
Edges point from a target to the targets it depends on.

Examples:
  kettle graph app                   # Graphviz DOT
  kettle graph app -f mermaid        # Mermaid flowchart
  kettle graph app net -f json       # machine-readable build order`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := NewFormatter(opts.format)
			if err != nil {
				return err
			}

			_, s, err := session.Open(cmd.Context(), session.SettingsFrom(v), afero.NewOsFs(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			chain, err := s.Context.DependencyChain(args)
			if err != nil {
				return err
			}

			label := opts.label
			if label == "" {
				label = fmt.Sprintf("%s (%s)", s.Context.Configuration.Name, s.Context.Platform)
			}
			output, err := formatter.Format(chain, formatters.RenderOptions{Label: label})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format,
		fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "Graph title (default: configuration and platform)")

	return cmd
}
