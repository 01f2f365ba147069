package executor

import (
	"fmt"

	"github.com/nextrunner/nextrunner/internal/binaryid"
)

// CaptureStrategy selects how a unit's stdout/stderr are collected. None
// is forced whenever the profile sets no_capture; Split is used for
// human-format reporting; Combined is used for structured machine
// formats that need stdout/stderr interleaving preserved.
type CaptureStrategy int

const (
	CaptureNone CaptureStrategy = iota
	CaptureSplit
	CaptureCombined
)

// TargetRunner optionally wraps the test binary invocation in a
// configured runner program (e.g. a QEMU or SSH wrapper), mirroring
// cargo's `target.<triple>.runner` mechanism.
type TargetRunner struct {
	Program string
	Args    []string
}

// Command describes the process a unit spawns, before any
// capture-strategy or environment augmentation is applied.
type Command struct {
	// Binary is the test binary's path (or, for a setup script, the
	// script's own command).
	Binary string
	// TestName is empty for a setup script.
	TestName string
	// Ignored requests the binary also consider ignored tests eligible.
	Ignored bool
	// ExtraArgs are appended after the required --exact/--nocapture
	// flags (the profile's run-extra-args).
	ExtraArgs []string
	// Runner optionally wraps Binary.
	Runner *TargetRunner
	// WorkingDir is the directory the process runs in (the package's
	// manifest directory, per the cargo-style env block below).
	WorkingDir string
	// LibrarySearchPaths augments LD_LIBRARY_PATH (Unix) or
	// DYLD_LIBRARY_PATH (Darwin) for target-built tests whose shared
	// libraries live outside the default search path.
	LibrarySearchPaths []string
	// PackageName/PackageVersion/ManifestDir populate the cargo-compatible
	// env block child processes expect.
	PackageName    string
	PackageVersion string
	ManifestDir    string
	// EnvFile, if non-empty, is passed as NEXTEST_ENV for a setup script
	// so it can write KEY=VALUE lines a later test inherits.
	EnvFile string
	// IsSetupScript distinguishes a script invocation (no --exact/--nocapture
	// flags, no NEXTEST=1) from a test invocation.
	IsSetupScript bool
}

// Argv resolves the full argv for this command, including the optional
// target-runner wrapper.
func (c Command) Argv() (program string, args []string) {
	program = c.Binary
	args = c.flags()
	if c.Runner != nil {
		return c.Runner.Program, append(append([]string{}, c.Runner.Args...), append([]string{program}, args...)...)
	}
	return program, args
}

func (c Command) flags() []string {
	if c.IsSetupScript {
		return append([]string{}, c.ExtraArgs...)
	}
	args := []string{"--exact", c.TestName, "--nocapture"}
	if c.Ignored {
		args = append(args, "--ignored")
	}
	return append(args, c.ExtraArgs...)
}

// Env builds the full environment block for this command: the cargo-style
// package metadata vars, NEXTEST=1 (tests only), NEXTEST_ENV (setup
// scripts only, when EnvFile is set), and library search path
// augmentation.
func (c Command) Env(base []string, libVar string) []string {
	env := append([]string{}, base...)
	env = append(env,
		"CARGO_PKG_NAME="+c.PackageName,
		"CARGO_PKG_VERSION="+c.PackageVersion,
		"CARGO_MANIFEST_DIR="+c.ManifestDir,
	)
	if c.IsSetupScript {
		if c.EnvFile != "" {
			env = append(env, "NEXTEST_ENV="+c.EnvFile)
		}
	} else {
		env = append(env, "NEXTEST=1")
	}
	if len(c.LibrarySearchPaths) > 0 && libVar != "" {
		value := joinPaths(c.LibrarySearchPaths)
		prefix := libVar + "="
		for _, kv := range base {
			if len(kv) > len(prefix) && kv[:len(prefix)] == prefix {
				value += ":" + kv[len(prefix):]
			}
		}
		env = append(env, prefix+value)
	}
	return env
}

func joinPaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ":"
		}
		out += p
	}
	return out
}

// BuildTestCommand constructs the Command for one test instance.
func BuildTestCommand(bin binaryid.ID, testName, binaryPath string, ignored bool, extraArgs []string, runner *TargetRunner) Command {
	return Command{
		Binary:      binaryPath,
		TestName:    testName,
		Ignored:     ignored,
		ExtraArgs:   extraArgs,
		Runner:      runner,
		PackageName: bin.Package(),
	}
}

// ValidateEnvKey rejects setup-script env-file keys starting with a
// reserved prefix.
func ValidateEnvKey(key string) error {
	const reserved = "NEXTEST_"
	if len(key) >= len(reserved) && key[:len(reserved)] == reserved {
		return fmt.Errorf("executor: env key %q uses reserved prefix %q", key, reserved)
	}
	return nil
}
