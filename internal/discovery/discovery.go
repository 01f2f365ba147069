// Package discovery runs a test binary's own `--list --format terse`
// output through a binary and turns it into testlist.TestCase entries.
// Finding or building the binaries themselves (cargo invocation,
// cross-compilation target resolution) is out of scope here: discovery
// only knows how to ask an already-built binary what it contains.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nextrunner/nextrunner/internal/testlist"
)

// ListError is a discovery error: either the binary itself failed to
// run its --list invocation, or it ran but produced output this package
// couldn't parse.
type ListError struct {
	BinaryPath string
	Line       string // empty for a binary-list failure
	Cause      error
}

func (e *ListError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("discovery: %s: unparseable test-list line %q: %v", e.BinaryPath, e.Line, e.Cause)
	}
	return fmt.Sprintf("discovery: %s: listing tests: %v", e.BinaryPath, e.Cause)
}

func (e *ListError) Unwrap() error { return e.Cause }

// ListBinary runs binaryPath with --list --format terse and parses its
// output into test cases. Benchmark lines are included with IsBenchmark
// set so the filter engine can exclude them per its own policy; this
// package doesn't decide whether benchmarks run.
func ListBinary(ctx context.Context, binaryPath string, extraArgs []string) ([]testlist.TestCase, error) {
	args := append([]string{"--list", "--format", "terse"}, extraArgs...)
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ListError{BinaryPath: binaryPath, Cause: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}
	return parseTerse(binaryPath, stdout.Bytes())
}

func parseTerse(binaryPath string, data []byte) ([]testlist.TestCase, error) {
	var cases []testlist.TestCase
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		tc, err := parseLine(line)
		if err != nil {
			return nil, &ListError{BinaryPath: binaryPath, Line: line, Cause: err}
		}
		cases = append(cases, tc)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ListError{BinaryPath: binaryPath, Cause: err}
	}
	return cases, nil
}

// parseLine parses one "<name>: test" or "<name>: benchmark" line,
// tolerating a trailing " (ignored)" marker some harnesses append.
func parseLine(line string) (testlist.TestCase, error) {
	name, kind, ok := strings.Cut(line, ": ")
	if !ok {
		return testlist.TestCase{}, fmt.Errorf("missing \": test\"/\": benchmark\" suffix")
	}
	ignored := false
	kind = strings.TrimSpace(kind)
	if rest, found := strings.CutSuffix(kind, " (ignored)"); found {
		kind = rest
		ignored = true
	}
	switch kind {
	case "test":
		return testlist.TestCase{Name: name, Ignored: ignored}, nil
	case "benchmark":
		return testlist.TestCase{Name: name, Ignored: ignored, IsBenchmark: true}, nil
	default:
		return testlist.TestCase{}, fmt.Errorf("unknown test kind %q", kind)
	}
}
