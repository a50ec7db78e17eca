package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kiti15237/American-Gut/internal/artifact"
	"github.com/kiti15237/American-Gut/internal/scheduler"
)

func TestStageStatus_IsTerminal(t *testing.T) {
	assert.False(t, StageNotStarted.IsTerminal())
	assert.False(t, StageFanningOut.IsTerminal())
	assert.False(t, StageWaiting.IsTerminal())
	assert.True(t, StageComplete.IsTerminal())
	assert.True(t, StageFailed.IsTerminal())
	assert.True(t, StageSkipped.IsTerminal())
}

func TestStage_Outputs(t *testing.T) {
	stage := testStage("fecal-filter", 3)

	outs := stage.Outputs()
	assert.Len(t, outs, 3)
	assert.Equal(t, "fecal-filter-in0-out.fna", outs[0].Path)
}

func TestStageState_FailedJobs(t *testing.T) {
	state := &StageState{
		Jobs: []JobRecord{
			{Handle: "1", State: scheduler.JobStateSucceeded},
			{Handle: "2", State: scheduler.JobStateFailed, Item: FanOutItem{Input: artifact.Input("b.fna")}},
			{Handle: "3", State: scheduler.JobStateSucceeded},
		},
	}

	failed := state.FailedJobs()
	assert.Len(t, failed, 1)
	assert.Equal(t, scheduler.JobHandle("2"), failed[0].Handle)
	assert.Equal(t, "b.fna", failed[0].Item.Input.Path)
}
