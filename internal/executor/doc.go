// Package executor runs one test (or setup script) unit to completion:
// it builds the process command, enforces capture strategy and the
// slow/terminate/leak timeout policy, retries a failing attempt according
// to its RetryPolicy, and enforces global and per-test-group concurrency
// through weighted semaphores.
//
// A unit's full lifecycle — across every attempt — runs inside one call to
// Executor.RunUnit, which emits events.Event values onto a sink channel in
// a fixed order (Started, then per attempt Slow* then either Finished or
// AttemptFailedWillRetry/RetryStarted and another attempt) and listens for
// events.RunUnitRequest values the dispatcher sends to route signals and
// info queries to this specific unit.
package executor
