//go:build windows

package dispatcher

import (
	"os"
	"os/signal"
)

func notifyCancel(ch chan<- os.Signal) { signal.Notify(ch, os.Interrupt) }

// Windows has no SIGTSTP/SIGCONT job-control equivalent the dispatcher
// can hook into, nor a SIGUSR1 analogue: both are no-ops there.
func notifyJobControl(ch chan<- os.Signal) {}

func notifyInfo(ch chan<- os.Signal) {}

func isInterrupt(sig os.Signal) bool { return sig == os.Interrupt }

func suspendSelf() {}
