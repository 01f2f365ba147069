// Package config loads and validates a workspace's config.toml: the
// profile model (retries, concurrency, timeouts, filters, overrides,
// setup scripts) that the filter engine, executor, and dispatcher are all
// configured from.
//
// # Layering
//
//  1. DefaultConfig() — a single "default" profile, one thread per
//     logical CPU, no retries, no timeouts. Used when no config.toml
//     exists at all.
//  2. config.toml at the workspace root, decoded with BurntSushi/toml.
//     Each profile it defines is used as decoded: fields it leaves unset
//     are not filled in from the "default" profile. A config.toml that
//     never defines "default" gets the one from DefaultConfig().
//  3. Per-override narrowing within a profile (Override.Filter,
//     Override.Platform): applied at config-resolution time by the
//     caller, not by this package, since resolving an override requires
//     the filter engine and a platform query this package doesn't own.
//
// # Version gating
//
// A config.toml may declare [nextest.version] required = "X.Y.Z" to
// refuse loading on an older binary. Load checks this in a first,
// tolerant decode pass before attempting the full typed decode, so a
// too-old binary reports the version mismatch instead of a confusing
// field-shape error.
//
// # Hot reload
//
// Watch uses fsnotify to re-run Load whenever config.toml changes on
// disk. Nothing in this package depends on Watch being called; it exists
// for long-lived front ends (a watch mode, an IDE integration) that want
// to pick up edits without restarting.
package config
