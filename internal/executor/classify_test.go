package executor

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextrunner/nextrunner/internal/events"
)

func TestClassifyStartErrorWinsOverEverything(t *testing.T) {
	r := classify(attemptOutcome{startErr: errors.New("exec: not found"), timedOut: true, leaked: true})
	assert.Equal(t, events.ResultExecFail, r.Kind)
}

func TestClassifyTimeoutWinsOverLeak(t *testing.T) {
	r := classify(attemptOutcome{timedOut: true, leaked: true})
	assert.Equal(t, events.ResultTimeout, r.Kind)
}

func TestClassifyLeakOnlyAfterExit(t *testing.T) {
	r := classify(attemptOutcome{leaked: true})
	assert.Equal(t, events.ResultLeak, r.Kind)
	assert.True(t, r.InnerPass)
}

func TestClassifyCleanExitPasses(t *testing.T) {
	r := classify(attemptOutcome{})
	assert.Equal(t, events.ResultPass, r.Kind)
	assert.True(t, r.Passed())
}

func TestClassifyNonZeroExitFails(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 1")
	waitErr := cmd.Run()
	r := classify(attemptOutcome{waitErr: waitErr})
	assert.Equal(t, events.ResultFail, r.Kind)
	assert.False(t, r.Passed())
}
