// Package events defines the typed event stream the dispatcher emits and
// the run-statistics and execution-result shapes that drive it: a unit's
// lifecycle (Started/Slow/AttemptFailedWillRetry/RetryStarted/Finished/
// Skipped), the run's envelope (RunStarted/RunBeginCancel/RunFinished),
// setup-script and info-query events, and the per-attempt
// ExecutionResult/CapturedOutput shapes the executor produces.
//
// Nothing in this package renders anything: a reporter collaborator
// consumes the stream. It exists so the dispatcher and executor packages
// share one vocabulary without an import cycle between them.
package events
