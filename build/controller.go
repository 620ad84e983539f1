// Package build runs the install actions of a resolved dependency chain.
package build

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/logging"
	"github.com/LegacyCodeHQ/kettle/project"
)

// Options control a build request.
type Options struct {
	// Only restricts actions to targets resolved directly from the requested names.
	Only bool
	// Dry resolves the chain without running any action.
	Dry bool
	// Jobs is the number of actions that may run at once. Values below 2 build sequentially.
	Jobs int
}

// Result reports what a build resolved and ran.
type Result struct {
	Chain   *dependency.Chain
	Ordered []dependency.Resolution
	// Built names the targets whose action completed, in completion order.
	Built []string
}

// Controller builds targets of a project context.
type Controller struct {
	Context *project.Context
	Options Options
}

// NewController creates a controller for pctx.
func NewController(pctx *project.Context, opts Options) *Controller {
	return &Controller{Context: pctx, Options: opts}
}

type step struct {
	target     *project.Target
	dependency string
}

// Build resolves names and runs the action of every ordered target that has
// one. Resolution errors abort before any action runs. The first failing
// action stops the build; completed work is kept.
func (c *Controller) Build(ctx context.Context, names []string) (*Result, error) {
	logger := logging.FromContext(ctx)

	chain, err := c.Context.DependencyChain(names)
	if err != nil {
		return nil, err
	}

	ordered := chain.Ordered
	if c.Options.Only {
		ordered = chain.DirectTargets(ordered)
	}
	result := &Result{Chain: chain, Ordered: ordered}

	var steps []step
	for _, r := range ordered {
		if t, ok := r.Provider.(*project.Target); ok && t.HasAction() {
			steps = append(steps, step{target: t, dependency: r.Dependency})
		}
	}

	if c.Options.Dry {
		logger.Info("Dry run, no actions executed", "targets", len(ordered), "actions", len(steps))
		return result, nil
	}

	if c.Options.Jobs > 1 {
		err = c.buildParallel(ctx, chain, steps, result)
	} else {
		err = c.buildSequential(ctx, steps, result)
	}
	if err != nil {
		return result, err
	}

	logger.Info("Completed build successfully.")
	return result, nil
}

func (c *Controller) buildSequential(ctx context.Context, steps []step, result *Result) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.run(ctx, s); err != nil {
			return err
		}
		result.Built = append(result.Built, s.target.Name())
	}
	return nil
}

// buildParallel starts steps in chain order. Each step waits for every step
// it transitively depends on, looking through targets that have no action.
func (c *Controller) buildParallel(ctx context.Context, chain *dependency.Chain, steps []step, result *Result) error {
	done := make(map[dependency.Provider]chan struct{}, len(steps))
	for _, s := range steps {
		done[s.target] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Options.Jobs)

	var mu sync.Mutex
	for _, s := range steps {
		waits := prerequisites(chain, s.target, done)
		g.Go(func() error {
			for _, ch := range waits {
				select {
				case <-ch:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.run(gctx, s); err != nil {
				return err
			}
			mu.Lock()
			result.Built = append(result.Built, s.target.Name())
			mu.Unlock()
			close(done[s.target])
			return nil
		})
	}
	return g.Wait()
}

// prerequisites returns the completion channels of the runnable dependencies
// of p, reached transitively.
func prerequisites(chain *dependency.Chain, p dependency.Provider, done map[dependency.Provider]chan struct{}) []chan struct{} {
	var waits []chan struct{}
	seen := make(map[dependency.Provider]bool)
	var visit func(dependency.Provider)
	visit = func(p dependency.Provider) {
		for _, dep := range chain.DependenciesOf(p) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if ch, ok := done[dep]; ok {
				waits = append(waits, ch)
			}
			visit(dep)
		}
	}
	visit(p)
	return waits
}

func (c *Controller) run(ctx context.Context, s step) error {
	logging.FromContext(ctx).Infof("Building %s for dependency %s...", s.target.Name(), s.dependency)
	return s.target.InstallNow(ctx, c.Context)
}
