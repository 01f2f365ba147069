package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextrunner/nextrunner/internal/config"
	"github.com/nextrunner/nextrunner/internal/dispatcher"
	"github.com/nextrunner/nextrunner/internal/events"
	"github.com/nextrunner/nextrunner/internal/executor"
	"github.com/nextrunner/nextrunner/internal/store"
)

// newRunCmd builds the `run` subcommand: load config, resolve the
// profile and filter, discover and select tests, run them through the
// dispatcher, report the event stream as it arrives, and (with
// --record) append the outcome to the record store (spec.md §11).
func newRunCmd() *cobra.Command {
	var (
		profileName    string
		filterExprs    []string
		ignoredFlag    string
		noCapture      bool
		record         bool
		rerunOf        string
		stressCount    uint32
		stressDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [binaries...]",
		Short: "Run the selected tests concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, _ := cmd.Flags().GetString("workspace")
			ctx := cmd.Context()

			cfg, err := config.Load(workspace, nextrunnerVersion)
			if err != nil {
				return err
			}
			profile, err := resolveProfile(cfg, profileName)
			if err != nil {
				return err
			}
			ignored, err := parseIgnoredPolicy(ignoredFlag)
			if err != nil {
				return err
			}

			catalog, binaryPaths, err := discoverCatalog(ctx, args)
			if err != nil {
				return err
			}
			bf, err := compileFilters(filterExprs, profile.DefaultFilter)
			if err != nil {
				return err
			}
			units, err := selectUnits(catalog, binaryPaths, bf, profile, ignored)
			if err != nil {
				return err
			}

			plan := dispatcher.Plan{
				SetupScripts: buildSetupScripts(cfg, profile),
				Tests:        make([]executor.UnitConfig, 0, len(units)),
			}
			for _, u := range units {
				plan.Tests = append(plan.Tests, unitConfigFor(u, noCapture))
			}

			pool := executor.NewPool(int64(profile.Threads), cfg.TestGroups)
			exec := executor.New(pool)
			d := dispatcher.New(exec, profile.FailFast)

			out := make(chan events.Event, 256)
			done := make(chan struct{})
			go func() {
				defer close(done)
				report(cmd.OutOrStdout(), out)
			}()

			startedAt := time.Now()
			var stats *events.RunStats
			if stressCfg, ok := stressConfigFrom(stressCount, stressDuration); ok {
				var outcome dispatcher.StressOutcome
				stats, outcome = d.RunStress(ctx, plan, out, stressCfg)
				<-done
				fmt.Fprintf(cmd.ErrOrStderr(), "stress run stopped after %d iteration(s): %s\n",
					stats.Snapshot().StressIterations, stressOutcomeString(outcome))
			} else {
				stats = d.Run(ctx, plan, out)
				<-done
			}

			finishedAt := time.Now()
			printSummary(cmd.ErrOrStderr(), stats)

			if record {
				if err := recordRun(workspace, profileName, rerunOf, startedAt, finishedAt, stats); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "nextrunner: recording run:", err)
				}
			}

			if stats.FailedCount() > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "profile to run under (default: \"default\")")
	cmd.Flags().StringArrayVarP(&filterExprs, "filter-expr", "E", nil, "test filter expression (repeatable, OR'd together)")
	cmd.Flags().StringVar(&ignoredFlag, "run-ignored", "default", "one of default, ignored-only, all")
	cmd.Flags().BoolVar(&noCapture, "no-capture", false, "don't capture test stdout/stderr")
	cmd.Flags().BoolVar(&record, "record", false, "append this run's outcome to the record store")
	cmd.Flags().StringVar(&rerunOf, "rerun-of", "", "run ID (or prefix) this run reran, for the store's rerun tree")
	cmd.Flags().Uint32Var(&stressCount, "stress-count", 0, "repeat the selected tests this many times (0 disables count-based stress)")
	cmd.Flags().DurationVar(&stressDuration, "stress-duration", 0, "repeat the selected tests until this much time has elapsed (0 disables duration-based stress)")
	return cmd
}

// stressConfigFrom builds a dispatcher.StressConfig from the run
// subcommand's flags, reporting false when neither is set so the caller
// falls back to a single Run.
func stressConfigFrom(count uint32, duration time.Duration) (dispatcher.StressConfig, bool) {
	var cfg dispatcher.StressConfig
	set := false
	if count > 0 {
		cfg.Count = &count
		set = true
	}
	if duration > 0 {
		cfg.Duration = &duration
		set = true
	}
	return cfg, set
}

func stressOutcomeString(o dispatcher.StressOutcome) string {
	if o == dispatcher.StressCompleted {
		return "completed"
	}
	return "cancelled"
}

// buildSetupScripts resolves a profile's setup-scripts list into
// executor units, in declaration order (the dispatcher runs them
// sequentially before any test starts).
func buildSetupScripts(cfg config.Config, profile config.Profile) []executor.UnitConfig {
	units := make([]executor.UnitConfig, 0, len(profile.SetupScripts))
	for _, id := range profile.SetupScripts {
		s, ok := cfg.Scripts[id]
		if !ok || len(s.Command) == 0 {
			continue
		}
		cmd := executor.Command{Binary: s.Command[0], ExtraArgs: s.Command[1:], IsSetupScript: true}
		units = append(units, executor.UnitConfig{
			ID:      events.SetupUnitID(id),
			Command: cmd,
			Capture: executor.CaptureSplit,
			Group:   s.Group,
		})
	}
	return units
}

// report prints a terse, human-readable line per event as it arrives,
// mirroring the shape of the teacher's own status-line reporting without
// adopting its domain.
func report(w io.Writer, in <-chan events.Event) {
	for e := range in {
		switch e.Kind {
		case events.KindRunStarted:
			fmt.Fprintln(w, "run started")
		case events.KindUnitStarted:
			fmt.Fprintf(w, "     RUNNING %s\n", e.Unit)
		case events.KindUnitSlow:
			fmt.Fprintf(w, "        SLOW %s (%s)\n", e.Unit, e.Elapsed)
		case events.KindUnitRetryStarted:
			fmt.Fprintf(w, "       RETRY %s (attempt %d)\n", e.Unit, e.Attempt)
		case events.KindUnitFinished:
			last := e.Statuses.Last()
			if last.Result.Passed() {
				fmt.Fprintf(w, "        PASS %s\n", e.Unit)
			} else {
				fmt.Fprintf(w, "        FAIL %s: %s\n", e.Unit, last.Result.Kind)
			}
		case events.KindUnitSkipped:
			fmt.Fprintf(w, "        SKIP %s (%s)\n", e.Unit, e.SkipReason)
		case events.KindSetupScriptFinished:
			fmt.Fprintf(w, "       SETUP %s\n", e.Unit)
		case events.KindRunFinished:
			fmt.Fprintln(w, "run finished")
		}
	}
}

func printSummary(w io.Writer, stats *events.RunStats) {
	snap := stats.Snapshot()
	failed := stats.FailedCount()
	fmt.Fprintf(w, "%d passed, %d failed, %d flaky, %d skipped (cancel: %s)\n",
		snap.FinishedPass, failed, snap.Flaky, snap.Skipped, snap.CancelReason)
}

// recordRun appends the run's outcome to the workspace's record store.
func recordRun(workspace, profileName, rerunOf string, startedAt, finishedAt time.Time, stats *events.RunStats) error {
	layout := store.NewLayout(config.StoreDir(workspace))

	var parentID uuid.UUID
	if rerunOf != "" {
		id, err := store.ResolvePrefix(layout, rerunOf)
		if err != nil {
			return err
		}
		parentID = id
	}

	snap := stats.Snapshot()
	info := store.RecordedRunInfo{
		ID:          uuid.New(),
		ParentID:    parentID,
		ProfileName: profileName,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Stats: store.RunStats{
			Total:   snap.InitialRunCount,
			Passed:  snap.FinishedPass,
			Failed:  stats.FailedCount(),
			Skipped: snap.Skipped,
			Flaky:   snap.Flaky,
		},
		StressIteration: int(snap.StressIterations),
	}
	return store.AppendRun(layout, info)
}
