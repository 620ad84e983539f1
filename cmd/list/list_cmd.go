package list

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/cmd/session"
	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/project"
)

type listOptions struct {
	provides string
}

// NewCommand returns the list command.
func NewCommand(v *viper.Viper) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the targets declared by the project's packages",
		Long: `List every target with its package, the names it provides, its
dependencies, and whether it has an install action.

With --provides, only targets satisfying the name are listed and the one
the current configuration resolves to is marked with '*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := session.Open(cmd.Context(), session.SettingsFrom(v), afero.NewOsFs(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if opts.provides != "" {
				return listProviders(cmd.OutOrStdout(), s.Context, opts.provides)
			}
			for _, t := range s.Context.Targets() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), describe(t)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.provides, "provides", "p", "", "Only list targets that provide this name")

	return cmd
}

func listProviders(w io.Writer, pctx *project.Context, name string) error {
	selected, err := dependency.Resolve(pctx.Selection(), name, pctx.Providers())
	if err != nil {
		return err
	}
	for _, t := range pctx.Targets() {
		if !t.Provides(name) {
			continue
		}
		marker := " "
		if dependency.Provider(t) == selected {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", marker, describe(t)); err != nil {
			return err
		}
	}
	return nil
}

func describe(t *project.Target) string {
	var sb strings.Builder
	sb.WriteString(t.Name())
	if t.Package() != nil {
		sb.WriteString(fmt.Sprintf(" [%s]", t.Package().Name))
	}
	if provides := t.ProvidedNames(); len(provides) > 0 {
		sb.WriteString(" provides: " + strings.Join(provides, ", "))
	}
	if deps := t.Dependencies(); len(deps) > 0 {
		sb.WriteString(" depends: " + strings.Join(deps, ", "))
	}
	if t.Priority() != 0 {
		sb.WriteString(fmt.Sprintf(" priority: %d", t.Priority()))
	}
	if t.HasAction() {
		sb.WriteString(" (builds)")
	}
	return sb.String()
}
