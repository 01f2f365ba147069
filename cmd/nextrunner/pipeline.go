package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nextrunner/nextrunner/internal/binaryid"
	"github.com/nextrunner/nextrunner/internal/config"
	"github.com/nextrunner/nextrunner/internal/discovery"
	"github.com/nextrunner/nextrunner/internal/events"
	"github.com/nextrunner/nextrunner/internal/executor"
	"github.com/nextrunner/nextrunner/internal/filter"
	"github.com/nextrunner/nextrunner/internal/filterexpr"
	"github.com/nextrunner/nextrunner/internal/testlist"
)

// nextrunnerVersion is the running tool version checked against a
// config.toml's [nextest.version] requirement.
const nextrunnerVersion = "0.1.0"

// buildBinaryID derives a binaryid.ID for a test binary from its path.
// Discovering a binary's actual package/target identity is the build
// tool's job (spec.md's Non-goals put the build system out of scope);
// absent that collaborator, the CLI front door treats every positional
// argument as an integration test binary named after its own file.
func buildBinaryID(path string) (binaryid.ID, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return binaryid.FromParts(base, binaryid.KindTest, base)
}

// discoverCatalog lists every binary in paths and registers its test
// cases in a fresh Catalog, returning the binary path each ID came from.
func discoverCatalog(ctx context.Context, paths []string) (*testlist.Catalog, map[binaryid.ID]string, error) {
	catalog := testlist.NewCatalog()
	binaryPaths := make(map[binaryid.ID]string, len(paths))

	for _, path := range paths {
		id, err := buildBinaryID(path)
		if err != nil {
			return nil, nil, err
		}
		if err := catalog.AddBinary(id); err != nil {
			return nil, nil, err
		}
		binaryPaths[id] = path

		cases, err := discovery.ListBinary(ctx, path, nil)
		if err != nil {
			return nil, nil, err
		}
		for _, tc := range cases {
			if err := catalog.AddTest(id, tc); err != nil {
				return nil, nil, err
			}
		}
	}
	return catalog, binaryPaths, nil
}

// resolveProfile returns the named profile, falling back to "default"
// when name is empty, and an error if an explicitly named profile
// doesn't exist.
func resolveProfile(cfg config.Config, name string) (config.Profile, error) {
	if name == "" {
		name = "default"
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		return config.Profile{}, fmt.Errorf("no such profile %q", name)
	}
	return p, nil
}

// compileFilters parses zero or more -E filter expressions and a
// profile's default-filter into a filterexpr.BinaryFilter. Multiple -E
// expressions are OR'd together; the default-filter, when set, narrows
// what runs absent an explicit -E (spec.md §3.2).
func compileFilters(exprs []string, defaultFilter string) (*filterexpr.BinaryFilter, error) {
	compiled := make([]filterexpr.Expr, 0, len(exprs))
	for _, s := range exprs {
		e, err := filterexpr.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing filter expression %q: %w", s, err)
		}
		compiled = append(compiled, e)
	}

	var defaultExpr filterexpr.Expr
	useDefault := len(compiled) == 0 && defaultFilter != ""
	if useDefault {
		e, err := filterexpr.Parse(defaultFilter)
		if err != nil {
			return nil, fmt.Errorf("parsing default-filter %q: %w", defaultFilter, err)
		}
		defaultExpr = e
	}
	return filterexpr.NewBinaryFilter(compiled, defaultExpr, useDefault), nil
}

// selectedUnit is one test case that survived filtering, paired with the
// binary it belongs to and the per-test settings its profile overrides
// resolve to.
type selectedUnit struct {
	id       binaryid.ID
	path     string
	testCase testlist.TestCase
	timeouts config.TimeoutPolicy
	retries  config.RetryPolicy
	threads  int
	group    string
}

// selectUnits runs the filter engine (binary-level short-circuit, then
// per-test precedence) over every binary in the catalog and resolves
// each surviving test's effective settings against the profile's
// overrides.
func selectUnits(catalog *testlist.Catalog, binaryPaths map[binaryid.ID]string, bf *filterexpr.BinaryFilter, profile config.Profile, ignored filter.IgnoredPolicy) ([]selectedUnit, error) {
	var selected []selectedUnit

	for _, id := range catalog.Binaries() {
		bq := filterexpr.BinaryQuery{Package: id.Package(), Kind: id.Kind(), Binary: id.Target(), PlatformHost: true}
		if filter.EvaluateBinary(bf, bq).IsMismatch() {
			continue
		}

		cases, err := catalog.Tests(id)
		if err != nil {
			return nil, err
		}

		tf := filter.NewTestFilter(bf, nil, ignored, filter.RunModeTest, nil, nil)
		for _, tc := range cases {
			tq := filterexpr.TestQuery{Package: id.Package(), Kind: id.Kind(), Binary: id.Target(), TestName: tc.Name, PlatformHost: true}
			fm := tf.Evaluate(tq, tc)
			if err := catalog.SetFilterMatch(id, tc.Name, fm); err != nil {
				return nil, err
			}
			if !fm.IsMatch() {
				continue
			}

			timeouts, retries, threads, group := config.EffectiveSettings(profile, func(ov config.Override) bool {
				return overrideMatches(ov, tq)
			})
			selected = append(selected, selectedUnit{
				id:       id,
				path:     binaryPaths[id],
				testCase: tc,
				timeouts: timeouts,
				retries:  retries,
				threads:  threads,
				group:    group,
			})
		}
	}
	return selected, nil
}

// overrideMatches evaluates an override's filter (if any) against a test
// query. An override with an empty filter never matches a test
// (spec.md §4.1: at least one of platform/filter must be specified, and
// this front door doesn't model the platform predicate).
func overrideMatches(ov config.Override, tq filterexpr.TestQuery) bool {
	if ov.Filter == "" {
		return false
	}
	expr, err := filterexpr.Parse(ov.Filter)
	if err != nil {
		return false
	}
	return filterexpr.Eval(expr, tq)
}

// unitConfigFor turns one selected test into an executor.UnitConfig,
// building its Command via executor.BuildTestCommand and its capture
// strategy from the reporter's noCapture flag.
func unitConfigFor(u selectedUnit, noCapture bool) executor.UnitConfig {
	cmd := executor.BuildTestCommand(u.id, u.testCase.Name, u.path, u.testCase.Ignored, nil, nil)
	capture := executor.CaptureSplit
	if noCapture {
		capture = executor.CaptureNone
	}
	threads := int64(u.threads)
	if threads <= 0 {
		threads = 1
	}
	return executor.UnitConfig{
		ID:              events.TestUnitID(u.id, u.testCase.Name),
		Command:         cmd,
		Capture:         capture,
		Timeouts:        u.timeouts,
		Retries:         u.retries,
		ThreadsRequired: threads,
		Group:           u.group,
	}
}
