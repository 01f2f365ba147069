package config

import "time"

// RetryPolicy is either a fixed retry count or an exponential backoff
// schedule. Exactly one of Fixed or Backoff should be set; a zero
// RetryPolicy means "no retries."
type RetryPolicy struct {
	Fixed   int              `toml:"fixed,omitempty"`
	Backoff *BackoffPolicy   `toml:"backoff,omitempty"`
}

// BackoffPolicy configures exponential backoff between retry attempts.
type BackoffPolicy struct {
	Count   int           `toml:"count"`
	Delay   time.Duration `toml:"delay"`
	Factor  float64       `toml:"factor,omitempty"`
	MaxDelay time.Duration `toml:"max-delay,omitempty"`
	Jitter  bool          `toml:"jitter,omitempty"`
}

// TimeoutPolicy bundles the three timeout knobs a running test is subject
// to. SlowAfter marks a test as slow once it has run for that long;
// Terminate, when non-zero and WarnOnly is false, forcibly kills a test
// still running Terminate after it was first marked slow (with WarnOnly
// set or Terminate zero, a slow test is never killed); Leak governs how long a test
// may keep its output pipes open past its own exit before being considered
// leaky.
type TimeoutPolicy struct {
	SlowAfter time.Duration `toml:"slow-timeout,omitempty"`
	WarnOnly  bool          `toml:"slow-timeout-warn-only,omitempty"`
	Terminate time.Duration `toml:"terminate-after,omitempty"`
	Leak      time.Duration `toml:"leak-timeout,omitempty"`
}

// SetupScript is a command run before a test group's tests start, whose
// environment variables (written to an injected env file) are propagated
// into the group's test processes.
type SetupScript struct {
	ID      string   `toml:"id"`
	Command []string `toml:"command"`
	Group   string   `toml:"group,omitempty"`
}

// TestGroup bounds how many tests tagged with this group's name may run
// concurrently, independent of the profile's overall thread count.
type TestGroup struct {
	Name       string `toml:"-"`
	MaxThreads int    `toml:"max-threads"`
}

// Override applies a narrower set of settings to the subset of tests
// matched by Filter, gated by an optional platform predicate. Overrides
// are evaluated in file order; the first matching override for a given
// setting wins, falling back to the profile's own setting.
type Override struct {
	Filter      string   `toml:"filter,omitempty"`
	Platform    string   `toml:"platform,omitempty"`
	Retries     *RetryPolicy   `toml:"retries,omitempty"`
	Threads     *int           `toml:"test-threads,omitempty"`
	SlowTimeout time.Duration  `toml:"slow-timeout,omitempty"`
	SlowTimeoutWarnOnly bool   `toml:"slow-timeout-warn-only,omitempty"`
	TerminateAfter time.Duration `toml:"terminate-after,omitempty"`
	LeakTimeout time.Duration  `toml:"leak-timeout,omitempty"`
	Group       string         `toml:"group,omitempty"`
}

// TimeoutPolicy returns the TimeoutPolicy this override resolves to,
// falling back to base for any knob the override doesn't set.
func (o Override) TimeoutPolicy(base TimeoutPolicy) TimeoutPolicy {
	out := base
	if o.SlowTimeout > 0 {
		out.SlowAfter = o.SlowTimeout
		out.WarnOnly = o.SlowTimeoutWarnOnly
	}
	if o.TerminateAfter > 0 {
		out.Terminate = o.TerminateAfter
	}
	if o.LeakTimeout > 0 {
		out.Leak = o.LeakTimeout
	}
	return out
}

// ArchiveConfig is an opaque pass-through of a profile's archive-for-reuse
// settings: the core doesn't build or extract archives itself, but still
// has to parse and validate the field so a downstream archiver
// collaborator can consume it unchanged.
type ArchiveConfig struct {
	Include []string `toml:"include,omitempty"`
	Format  string   `toml:"format,omitempty"`
}

// Profile is one named test-execution profile: a self-contained set of
// filters, concurrency limits, timeout policies, retry behavior, and setup
// scripts. "default" is always present, synthesized if the config file
// doesn't define it.
type Profile struct {
	Name        string                 `toml:"-"`
	Retries     RetryPolicy            `toml:"retries,omitempty"`
	Threads     int                    `toml:"test-threads,omitempty"`
	SlowTimeout time.Duration          `toml:"slow-timeout,omitempty"`
	SlowTimeoutWarnOnly bool           `toml:"slow-timeout-warn-only,omitempty"`
	TerminateAfter time.Duration       `toml:"terminate-after,omitempty"`
	LeakTimeout time.Duration          `toml:"leak-timeout,omitempty"`
	DefaultFilter string               `toml:"default-filter,omitempty"`
	Overrides   []Override             `toml:"overrides,omitempty"`
	SetupScripts []string              `toml:"setup-scripts,omitempty"`
	FailFast    *int                   `toml:"fail-fast,omitempty"`
	StatusLevel string                 `toml:"status-level,omitempty"`
	Archive     *ArchiveConfig         `toml:"archive,omitempty"`
}

// TimeoutPolicy returns this profile's own timeout policy, before any
// override narrows it for a specific subset of tests.
func (p Profile) TimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		SlowAfter: p.SlowTimeout,
		WarnOnly:  p.SlowTimeoutWarnOnly,
		Terminate: p.TerminateAfter,
		Leak:      p.LeakTimeout,
	}
}

// Config is the fully parsed, version-validated configuration. It is built
// in two passes by Load: first a tolerant pass that reads only the
// nextest-version line (so a too-old binary can report a clear error
// instead of an opaque TOML decode failure), then a full typed decode.
type Config struct {
	NextVersion   VersionRequirement       `toml:"-"`
	Profiles      map[string]Profile       `toml:"profile"`
	Scripts       map[string]SetupScript   `toml:"script"`
	TestGroups    map[string]TestGroup     `toml:"test-groups"`
	Experimental  []string                 `toml:"experimental,omitempty"`
}

// VersionRequirement is the parsed form of the config file's
// [nextest.version] table: the minimum version this config was written
// against, and whether it opts into pre-release-gated features.
type VersionRequirement struct {
	Required string `toml:"required,omitempty"`
	Override bool   `toml:"override,omitempty"`
}

// rawConfig mirrors the on-disk TOML shape for the full decode pass. TOML
// table names use hyphens and dotted paths that don't map cleanly onto Go
// field names, so the loader decodes into this shape first and then
// reshapes it into Config.
type rawConfig struct {
	Nextest struct {
		Version VersionRequirement `toml:"version"`
	} `toml:"nextest"`
	Profile      map[string]Profile     `toml:"profile"`
	Script       map[string]SetupScript `toml:"script"`
	TestGroups   map[string]TestGroup   `toml:"test-groups"`
	Experimental []string               `toml:"experimental"`
}
