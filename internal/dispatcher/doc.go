// Package dispatcher implements the single-owner run controller: it
// schedules setup scripts and test units against internal/executor,
// multiplexes unit lifecycle events with OS signals and user-input
// requests, enforces fail-fast/max-fail cancellation, and emits the
// run-wide event envelope (RunStarted/RunBeginCancel/RunFinished) the
// rest of the system observes.
//
// Exactly one goroutine — the one running Dispatcher.Run — ever mutates
// run statistics or the cancel state; every other goroutine in a run
// (one per in-flight unit) only ever writes events onto a shared channel
// or reads from its own request channel.
package dispatcher
