package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

// counterLimit is the largest value the demo counter accepts.
const counterLimit = 100

// demoCells are the cells seeded by "serve --demo" and the demo command.
type demoCells struct {
	store   *store.Store
	counter *observable.ObservableValue[int]
	title   *observable.ObservableValue[string]
	tags    *observable.ObservableValue[[]string]
	ticks   *observable.ObservableValue[int]

	summary     *observable.Reaction
	lastSummary string
}

// seedDemo defines the demo cells in s and starts a reaction that summarizes
// them.
//
//   - counter: clamped to [0, 100] by an interceptor
//   - title: trimmed, blank titles are vetoed
//   - tags: copied on write
//   - ticks: advanced by tick
func seedDemo(s *store.Store, logger *slog.Logger) (*demoCells, error) {
	d := &demoCells{store: s}

	var err error
	if d.counter, err = store.Define(s, "counter", 0); err != nil {
		return nil, err
	}
	if d.title, err = store.Define(s, "title", "untitled"); err != nil {
		return nil, err
	}
	if d.tags, err = store.Define(s, "tags", []string{"demo"},
		observable.WithEnhancer(observable.SliceCloneEnhancer[[]string]())); err != nil {
		return nil, err
	}
	if d.ticks, err = store.Define(s, "ticks", 0); err != nil {
		return nil, err
	}

	s.Do(func() {
		d.counter.Intercept(func(c observable.ValueWillChange[int]) (observable.ValueWillChange[int], bool) {
			c.NewValue = max(0, min(c.NewValue, counterLimit))
			return c, true
		})
		d.title.Intercept(func(c observable.ValueWillChange[string]) (observable.ValueWillChange[string], bool) {
			c.NewValue = strings.TrimSpace(c.NewValue)
			return c, c.NewValue != ""
		})

		d.summary = observable.NewReaction(s.Context(), "summary", func() {
			d.lastSummary = fmt.Sprintf("%s: %d [%s]", d.title.Get(), d.counter.Get(), strings.Join(d.tags.Get(), ", "))
			logger.Debug("summary updated", "summary", d.lastSummary)
		})
		d.summary.Run()
	})
	return d, nil
}

// tick advances the ticks cell inside an action.
func (d *demoCells) tick() error {
	var err error
	d.store.Do(func() {
		d.store.Context().RunInAction("tick", func() {
			err = d.ticks.Set(d.ticks.Get() + 1)
		})
	})
	return err
}

// runTicker calls tick every interval until ctx is done.
func (d *demoCells) runTicker(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.tick(); err != nil {
				logger.Error("tick failed", "error", err)
			}
		}
	}
}

// Summary returns the text last computed by the summary reaction.
func (d *demoCells) Summary() string {
	var s string
	d.store.Do(func() {
		s = d.lastSummary
	})
	return s
}

func demoCmd(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through the behavior of value cells",
		Long: `Run a scripted session against in-process cells.

The demo uses the "observed" enforcement policy and shows how
interceptors rewrite and veto writes, how reactions batch inside
actions, how the policy rejects writes outside actions, and how
snapshots restore state.

Examples:
  observable demo
  observable demo --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Reactivity.EnforceActions = observable.EnforceObserved.String()
			cfg.Snapshot.Backend = config.BackendMemory
			cfg.Log.Spy = verbose
			if verbose {
				cfg.Log.Level = "debug"
			}
			return runDemo(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every cell event")

	return cmd
}

func runDemo(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	d, err := seedDemo(a.store, a.logger)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  demo")
	fmt.Println()
	info("summary: %s", d.Summary())
	fmt.Println()

	step := func(title string, fn func() error) error {
		runs := d.summary.Runs()
		if err := fn(); err != nil {
			return err
		}
		success("%s", title)
		info("summary: %s (reaction ran %d times)", d.Summary(), d.summary.Runs()-runs)
		return nil
	}

	steps := []struct {
		title string
		fn    func() error
	}{
		{"counter = 5", func() error { return a.store.Write("counter", 5) }},
		{"counter = 500 is clamped to 100", func() error { return a.store.Write("counter", 500) }},
		{`title = "   " is vetoed`, func() error { return a.store.Write("title", "   ") }},
		{"counter = 100 again is a no-op", func() error { return a.store.Write("counter", 100) }},
		{"rename and reset in one action", func() error {
			var err error
			a.store.Do(func() {
				a.ctx.RunInAction("rename and reset", func() {
					if err = d.title.Set("groceries"); err != nil {
						return
					}
					if err = d.counter.Set(3); err != nil {
						return
					}
					err = d.tags.Set(append(d.tags.Get(), "food"))
				})
			})
			return err
		}},
	}
	for _, s := range steps {
		if err := step(s.title, s.fn); err != nil {
			return err
		}
	}

	fmt.Println()
	var setErr error
	a.store.Do(func() {
		setErr = d.counter.Set(7)
	})
	if setErr == nil {
		return errors.Newf(errors.CategoryRuntime, "write outside an action should have been rejected")
	}
	warn("counter = 7 outside an action: %s", errors.Classify(setErr, "E200").FormatCompact())

	fmt.Println()
	saved, err := snapshot.Save(ctx, a.store, a.backend, "demo.json")
	if err != nil {
		return err
	}
	success("saved snapshot with %d cells", len(saved.Cells))

	if err := a.store.Write("counter", 42); err != nil {
		return err
	}
	info("summary: %s", d.Summary())

	if _, err := snapshot.Restore(ctx, a.store, a.backend, "demo.json"); err != nil {
		return err
	}
	success("restored snapshot")
	info("summary: %s", d.Summary())
	fmt.Println()
	return nil
}
