package events

import "github.com/nextrunner/nextrunner/internal/binaryid"

// UnitID identifies one running attempt stream: a single test case within
// a single binary. Setup scripts use the zero TestName with ScriptID set
// instead (see SetupUnitID).
type UnitID struct {
	Binary   binaryid.ID
	TestName string
	ScriptID string
}

// IsSetupScript reports whether this UnitID names a setup script rather
// than a test case.
func (u UnitID) IsSetupScript() bool { return u.ScriptID != "" }

// TestUnitID builds a UnitID for a test case.
func TestUnitID(bin binaryid.ID, testName string) UnitID {
	return UnitID{Binary: bin, TestName: testName}
}

// SetupUnitID builds a UnitID for a setup script run.
func SetupUnitID(scriptID string) UnitID {
	return UnitID{ScriptID: scriptID}
}

func (u UnitID) String() string {
	if u.IsSetupScript() {
		return "script:" + u.ScriptID
	}
	return u.Binary.String() + "::" + u.TestName
}

// UnitSignal is a request the dispatcher routes to a running unit's
// executor task: stop gracefully, continue after a pause, or shut down
// immediately without waiting for grace.
type UnitSignal int

const (
	SignalStop UnitSignal = iota
	SignalContinue
	SignalShutdown
)

func (s UnitSignal) String() string {
	switch s {
	case SignalStop:
		return "stop"
	case SignalContinue:
		return "continue"
	case SignalShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// InfoResponsePayload is what a unit reports back in response to a
// GetInfo query: how long its current attempt has been running. The
// dispatcher pairs this with UnitID and an ordinal index when it emits
// InfoResponse.
type InfoResponsePayload struct {
	ElapsedMillis int64
	Attempt       int
}

// RunUnitRequest is the single message type the dispatcher sends down a
// unit's request channel: exactly one of Signal or Query is set.
type RunUnitRequest struct {
	Signal *UnitSignal
	Query  *InfoQuery
}

// InfoQuery carries the reply channel a unit writes its InfoResponsePayload
// to. The channel is a oneshot: the unit sends at most one value then the
// dispatcher stops listening on it after its collection window closes.
type InfoQuery struct {
	Reply chan<- InfoResponsePayload
}

// StopRequest builds a RunUnitRequest carrying a signal.
func StopRequest(sig UnitSignal) RunUnitRequest {
	s := sig
	return RunUnitRequest{Signal: &s}
}

// QueryRequest builds a RunUnitRequest carrying an info query whose reply
// is written to reply.
func QueryRequest(reply chan<- InfoResponsePayload) RunUnitRequest {
	return RunUnitRequest{Query: &InfoQuery{Reply: reply}}
}
