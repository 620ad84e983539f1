package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/build"
	"github.com/LegacyCodeHQ/kettle/cmd/session"
	"github.com/LegacyCodeHQ/kettle/logging"
)

type watchOptions struct {
	only bool
	jobs int
}

// NewCommand returns the watch command.
func NewCommand(v *viper.Viper) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <name>...",
		Short: "Rebuild targets whenever sources or manifests change",
		Long: `Build the named targets, then watch the project root and rebuild after
C, C++ and Objective-C sources or package manifests change. The manifests
are reloaded before every build. Output under the platforms path is ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, session.SettingsFrom(v), opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.only, "only", false, "Build only the named targets, not their dependencies")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "Number of install actions to run at once")

	return cmd
}

func runWatch(cmd *cobra.Command, settings session.Settings, opts *watchOptions, names []string) error {
	level := settings.LogLevel
	if level == "" {
		level = "info"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	root := settings.Root
	if root == "" {
		root = "."
	}
	if root, err = filepath.Abs(root); err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	settings.Root = root

	b := &builder{settings: settings, opts: opts, names: names, errOut: cmd.ErrOrStderr()}
	platformsPath, err := b.build(ctx)
	if platformsPath == "" {
		return err
	}
	if err != nil {
		logger.Error("Build failed", "err", err)
	}

	w := &watcher{
		root:     root,
		excluded: map[string]bool{platformsPath: true},
		rebuild: func() {
			if _, err := b.build(ctx); err != nil {
				logger.Error("Build failed", "err", err)
			}
		},
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", root)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return w.run(ctx)
}

// builder reloads the project and builds the requested names. Builds never overlap.
type builder struct {
	mu       sync.Mutex
	settings session.Settings
	opts     *watchOptions
	names    []string
	errOut   io.Writer
}

func (b *builder) build(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, s, err := session.Open(ctx, b.settings, afero.NewOsFs(), b.errOut)
	if err != nil {
		return "", err
	}
	controller := build.NewController(s.Context, build.Options{Only: b.opts.only, Jobs: b.opts.jobs})
	if _, err := controller.Build(ctx, b.names); err != nil {
		return s.Context.Configuration.PlatformsPath, err
	}
	return s.Context.Configuration.PlatformsPath, nil
}
