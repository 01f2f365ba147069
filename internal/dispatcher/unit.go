package dispatcher

import (
	"sync"

	"github.com/nextrunner/nextrunner/internal/events"
)

// unitRegistry tracks the request channel for every currently in-flight
// unit, keyed by its UnitID, so the dispatcher can route a signal or
// info query to a specific running unit (or broadcast to all of them).
type unitRegistry struct {
	mu      sync.Mutex
	running map[string]chan events.RunUnitRequest
}

func newUnitRegistry() *unitRegistry {
	return &unitRegistry{running: make(map[string]chan events.RunUnitRequest)}
}

func (r *unitRegistry) register(id events.UnitID, requests chan events.RunUnitRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[id.String()] = requests
}

func (r *unitRegistry) unregister(id events.UnitID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, id.String())
}

// snapshot returns the currently registered request channels, safe to
// range over after the lock is released (a unit may finish and
// unregister mid-broadcast; sends to its channel below are best-effort
// via a buffered channel and are simply never read).
func (r *unitRegistry) snapshot() []chan events.RunUnitRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chan events.RunUnitRequest, 0, len(r.running))
	for _, ch := range r.running {
		out = append(out, ch)
	}
	return out
}

// broadcastSignal sends sig to every currently running unit, dropping
// the send for any unit whose request channel is momentarily full
// rather than blocking the dispatcher's central loop on a slow unit.
func (r *unitRegistry) broadcastSignal(sig events.UnitSignal) {
	for _, ch := range r.snapshot() {
		select {
		case ch <- events.StopRequest(sig):
		default:
		}
	}
}
