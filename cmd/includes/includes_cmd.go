package includes

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/cmd/session"
)

type includesOptions struct {
	direct bool
}

// NewCommand returns the includes command.
func NewCommand(v *viper.Viper) *cobra.Command {
	opts := &includesOptions{}

	cmd := &cobra.Command{
		Use:   "includes <target> <file>",
		Short: "Print the headers a source file includes when built by a target",
		Long: `Resolve the target's environment and print every header the file
includes, directly or transitively, using the target's include directories.
Relative file paths are taken from the target's package directory.

Examples:
  kettle includes zlib src/deflate.c
  kettle includes zlib src/deflate.c --direct`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := session.Open(cmd.Context(), session.SettingsFrom(v), afero.NewOsFs(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			target, ok := s.Context.Target(args[0])
			if !ok {
				return fmt.Errorf("unknown target %q", args[0])
			}
			env, err := target.Environment(s.Context)
			if err != nil {
				return err
			}
			g, err := s.Context.Graphs.Graph(env)
			if err != nil {
				return err
			}

			path := args[1]
			if !filepath.IsAbs(path) {
				path = filepath.Join(target.Package().Path, path)
			}

			var headers []string
			if opts.direct {
				headers, err = g.Dependencies(path)
			} else {
				headers, err = g.Closure(path)
			}
			if err != nil {
				return err
			}
			for _, h := range headers {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), h); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.direct, "direct", false, "Only print headers the file includes itself")

	return cmd
}
