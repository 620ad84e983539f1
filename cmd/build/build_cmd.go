package build

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/build"
	"github.com/LegacyCodeHQ/kettle/cmd/session"
)

type buildOptions struct {
	only bool
	dry  bool
	jobs int
}

// NewCommand returns the build command.
func NewCommand(v *viper.Viper) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build <name>...",
		Short: "Resolve and build targets with their dependencies",
		Long: `Resolve each name to a target, order its dependencies and run every
install action in that order.

Examples:
  kettle build app                   # app and everything it depends on
  kettle build app --only            # only the target named app
  kettle build app --dry             # show the build order
  kettle build app net -j 4          # run up to 4 actions at once`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := session.Open(cmd.Context(), session.SettingsFrom(v), afero.NewOsFs(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			controller := build.NewController(s.Context, build.Options{
				Only: opts.only,
				Dry:  opts.dry,
				Jobs: opts.jobs,
			})
			result, err := controller.Build(ctx, args)
			if err != nil {
				return err
			}
			if opts.dry {
				return printPlan(cmd.OutOrStdout(), result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.only, "only", false, "Build only the named targets, not their dependencies")
	cmd.Flags().BoolVarP(&opts.dry, "dry", "n", false, "Print the build order without running any action")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "Number of install actions to run at once")

	return cmd
}

func printPlan(w io.Writer, result *build.Result) error {
	for _, r := range result.Ordered {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", r.Provider.Name(), r.Dependency); err != nil {
			return err
		}
	}
	return nil
}
