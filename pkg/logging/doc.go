// Package logging provides the structured logging used across nextrunner's
// core: config loading, filtering, the dispatcher, the executor, and the
// record store all log through here rather than printing directly.
//
// Two modes are supported:
//
//   - direct: logs are written immediately to the given io.Writer via a
//     slog.TextHandler. This is what the CLI front door uses.
//   - buffered: logs are pushed onto a channel instead, so a consumer that
//     owns the terminal (a progress renderer interleaving dispatcher events
//     with diagnostic output) can read and interleave them without tearing
//     output.
//
// Logging is diagnostic only. The dispatcher's typed event stream (see
// internal/events) is the actual product of a run; nothing in the core
// should depend on log output for correctness.
package logging
