package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextrunner/nextrunner/internal/config"
	"github.com/nextrunner/nextrunner/internal/filter"
)

// newListCmd builds the `nextrunner list` subcommand: it resolves the
// same binary/profile/filter pipeline as `run` but stops short of
// executing anything, printing the matched test names one per line
// (spec.md §11, "list prints the resolved test list without running it").
func newListCmd() *cobra.Command {
	var (
		profileName string
		filterExprs []string
		ignoredFlag string
	)

	cmd := &cobra.Command{
		Use:   "list [binaries...]",
		Short: "List the tests a run would execute, without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, _ := cmd.Flags().GetString("workspace")

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

			catalog, binaryPaths, err := discoverCatalog(cmd.Context(), args)
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

			for _, u := range units {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", u.id, u.testCase.Name)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d tests selected\n", len(units))
			return nil
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "profile to resolve settings from (default: \"default\")")
	cmd.Flags().StringArrayVarP(&filterExprs, "filter-expr", "E", nil, "test filter expression (repeatable, OR'd together)")
	cmd.Flags().StringVar(&ignoredFlag, "run-ignored", "default", "one of default, ignored-only, all")
	return cmd
}

// parseIgnoredPolicy maps the --run-ignored flag's human spelling onto
// filter.IgnoredPolicy.
func parseIgnoredPolicy(s string) (filter.IgnoredPolicy, error) {
	switch s {
	case "", "default":
		return filter.IgnoredPolicyExclude, nil
	case "ignored-only":
		return filter.IgnoredPolicyOnly, nil
	case "all":
		return filter.IgnoredPolicyInclude, nil
	default:
		return 0, fmt.Errorf("invalid --run-ignored value %q (want default, ignored-only, or all)", s)
	}
}
