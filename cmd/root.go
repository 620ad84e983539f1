package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/cmd/build"
	"github.com/LegacyCodeHQ/kettle/cmd/graph"
	"github.com/LegacyCodeHQ/kettle/cmd/includes"
	"github.com/LegacyCodeHQ/kettle/cmd/list"
	"github.com/LegacyCodeHQ/kettle/cmd/session"
	"github.com/LegacyCodeHQ/kettle/cmd/watch"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// NewRootCommand returns the kettle command with every sub-command registered.
// Persistent flags can also be set through KETTLE_* environment variables.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KETTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "kettle",
		Short: "Resolve and build native targets across packages",
		Long: `Kettle builds C, C++ and Objective-C packages. Targets declare the
dependencies they need and the configuration they provide; kettle resolves
them into a build order and composes each target's environment.

Use 'kettle --help' to see all available commands, or 'kettle <command> --help'
for detailed information about a specific command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Annotations: map[string]string{
			"buildDate": buildDate,
			"commit":    commit,
		},
	}

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringP(session.KeyRoot, "C", ".", "Project root containing kettle.hcl")
	flags.StringP(session.KeyConfiguration, "c", "", "Configuration to build (default: first declared)")
	flags.String(session.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	flags.String(session.KeyPlatform, "", "Target platform (darwin, linux; default: host)")
	for _, key := range []string{session.KeyRoot, session.KeyConfiguration, session.KeyLogLevel, session.KeyPlatform} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(build.NewCommand(v))
	rootCmd.AddCommand(graph.NewCommand(v))
	rootCmd.AddCommand(list.NewCommand(v))
	rootCmd.AddCommand(includes.NewCommand(v))
	rootCmd.AddCommand(watch.NewCommand(v))

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
