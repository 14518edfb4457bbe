package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRunTransition(t *testing.T) {
	t.Run("legal forward path", func(t *testing.T) {
		run := NewGenerationRun("run-1", "proj-1", RunKindChapter, "ch-1")
		require.Equal(t, RunStateIdle, run.State)

		for _, next := range []RunState{
			RunStateContextBuilding,
			RunStateStreaming,
			RunStateCommitting,
			RunStateCompleted,
		} {
			require.NoError(t, run.Transition(next))
			assert.Equal(t, next, run.State)
		}
		assert.Equal(t, 100, run.Progress)
		assert.False(t, run.FinishedAt.IsZero())
	})

	t.Run("skipping a state is illegal", func(t *testing.T) {
		run := NewGenerationRun("run-1", "proj-1", RunKindChapter, "ch-1")
		err := run.Transition(RunStateStreaming)
		require.Error(t, err)
		assert.Equal(t, RunStateIdle, run.State)
	})

	t.Run("backward transition is illegal", func(t *testing.T) {
		run := NewGenerationRun("run-1", "proj-1", RunKindChapter, "ch-1")
		require.NoError(t, run.Transition(RunStateContextBuilding))
		require.NoError(t, run.Transition(RunStateStreaming))
		assert.Error(t, run.Transition(RunStateContextBuilding))
	})

	t.Run("failed reachable from any non-terminal state", func(t *testing.T) {
		run := NewGenerationRun("run-1", "proj-1", RunKindOutline, "outline:proj-1")
		require.NoError(t, run.Transition(RunStateContextBuilding))
		require.NoError(t, run.Transition(RunStateFailed))
		assert.Equal(t, RunStateFailed, run.State)
	})

	t.Run("terminal state is immutable", func(t *testing.T) {
		run := NewGenerationRun("run-1", "proj-1", RunKindChapter, "ch-1")
		require.NoError(t, run.Transition(RunStateCancelled))

		assert.Error(t, run.Transition(RunStateContextBuilding))
		assert.Error(t, run.Transition(RunStateFailed))
		assert.Equal(t, RunStateCancelled, run.State)
	})
}

func TestGenerationRunUpdateProgress(t *testing.T) {
	run := NewGenerationRun("run-1", "proj-1", RunKindChapter, "ch-1")

	run.UpdateProgress(40)
	assert.Equal(t, 40, run.Progress)

	// 单调不减
	run.UpdateProgress(25)
	assert.Equal(t, 40, run.Progress)

	// 夹取到 99，100 只由完成迁移设置
	run.UpdateProgress(250)
	assert.Equal(t, 99, run.Progress)

	run.UpdateProgress(-5)
	assert.Equal(t, 99, run.Progress)
}

func TestRunStateIsTerminal(t *testing.T) {
	assert.True(t, RunStateCompleted.IsTerminal())
	assert.True(t, RunStateFailed.IsTerminal())
	assert.True(t, RunStateCancelled.IsTerminal())
	assert.False(t, RunStateIdle.IsTerminal())
	assert.False(t, RunStateStreaming.IsTerminal())
}
