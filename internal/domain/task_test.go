package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pverel/imageforge-api/internal/domain"
)

func validSettings() domain.Settings {
	return domain.Settings{
		BaseURL:       "https://api.example.com",
		APIKey:        "key",
		Model:         "model",
		MaxConcurrent: 2,
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("a cat", 2, validSettings(), "default", "")
		require.NoError(t, err)

		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", task.ID.String())
		assert.Equal(t, domain.TaskStatusQueued, task.Status)
		assert.Equal(t, "a cat", task.Prompt)
		assert.Equal(t, 2, task.Count)
		assert.Equal(t, "default", task.ConfigName)
		assert.False(t, task.CreatedAt.IsZero())
		assert.Nil(t, task.StartedAt)
		assert.Nil(t, task.FinishedAt)
	})

	t.Run("unique identifiers", func(t *testing.T) {
		t.Parallel()

		a, err := domain.NewTask("a", 1, validSettings(), "", "")
		require.NoError(t, err)
		b, err := domain.NewTask("b", 1, validSettings(), "", "")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask("", 1, validSettings(), "", "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("count out of range", func(t *testing.T) {
		t.Parallel()

		for _, count := range []int{0, -1, 11} {
			_, err := domain.NewTask("a cat", count, validSettings(), "", "")
			assert.ErrorIs(t, err, domain.ErrValidation, "count=%d", count)
		}
	})

	t.Run("incomplete settings", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask("a cat", 1, domain.Settings{BaseURL: "https://x"}, "", "")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestTaskTransitions(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("full success path", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("a cat", 2, validSettings(), "", "")
		require.NoError(t, err)

		require.NoError(t, task.MarkRunning(now))
		assert.Equal(t, domain.TaskStatusRunning, task.Status)
		require.NotNil(t, task.StartedAt)

		require.NoError(t, task.MarkSucceeded(now, []string{"a.png", "b.png"}))
		assert.Equal(t, domain.TaskStatusSucceeded, task.Status)
		assert.Equal(t, []string{"a.png", "b.png"}, task.Results)
		assert.Empty(t, task.Error)
		require.NotNil(t, task.FinishedAt)
	})

	t.Run("full failure path", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("a cat", 1, validSettings(), "", "")
		require.NoError(t, err)

		require.NoError(t, task.MarkRunning(now))
		require.NoError(t, task.MarkFailed(now, "generation exploded"))
		assert.Equal(t, domain.TaskStatusFailed, task.Status)
		assert.Equal(t, "generation exploded", task.Error)
		assert.Nil(t, task.Results)
	})

	t.Run("cannot skip running", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("a cat", 1, validSettings(), "", "")
		require.NoError(t, err)

		assert.ErrorIs(t, task.MarkSucceeded(now, nil), domain.ErrIllegalTransition)
		assert.ErrorIs(t, task.MarkFailed(now, "x"), domain.ErrIllegalTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("a cat", 1, validSettings(), "", "")
		require.NoError(t, err)
		require.NoError(t, task.MarkRunning(now))
		require.NoError(t, task.MarkSucceeded(now, []string{"a.png"}))

		assert.ErrorIs(t, task.MarkRunning(now), domain.ErrIllegalTransition)
		assert.ErrorIs(t, task.MarkFailed(now, "x"), domain.ErrIllegalTransition)
	})
}

func TestTaskStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.TaskStatusSucceeded.IsTerminal())
	assert.True(t, domain.TaskStatusFailed.IsTerminal())
	assert.False(t, domain.TaskStatusQueued.IsTerminal())
	assert.False(t, domain.TaskStatusRunning.IsTerminal())

	assert.True(t, domain.TaskStatusQueued.IsValid())
	assert.False(t, domain.TaskStatus("exploded").IsValid())
}

func TestTaskSnapshot(t *testing.T) {
	t.Parallel()

	task, err := domain.NewTask("a cat", 1, validSettings(), "", "")
	require.NoError(t, err)

	raw, err := json.Marshal(task.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// Results is always an array and error is null unless failed; the
	// websocket clients depend on this shape.
	assert.Equal(t, []any{}, decoded["results"])
	assert.Nil(t, decoded["error"])
	assert.Equal(t, "queued", decoded["status"])
	assert.Nil(t, decoded["started_at"])

	// Credentials never appear in the snapshot.
	assert.NotContains(t, string(raw), "api_key")
	assert.NotContains(t, string(raw), validSettings().APIKey)

	now := time.Now().UTC()
	require.NoError(t, task.MarkRunning(now))
	require.NoError(t, task.MarkFailed(now, "boom"))

	snap := task.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, "boom", *snap.Error)
}

func TestTaskClone(t *testing.T) {
	t.Parallel()

	task, err := domain.NewTask("a cat", 1, validSettings(), "", "")
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, task.MarkRunning(now))
	require.NoError(t, task.MarkSucceeded(now, []string{"a.png"}))

	clone := task.Clone()
	require.NotSame(t, task, clone)
	assert.Equal(t, task.ID, clone.ID)

	// Mutating the clone leaves the original untouched.
	clone.Results[0] = "tampered.png"
	*clone.StartedAt = clone.StartedAt.Add(time.Hour)
	assert.Equal(t, "a.png", task.Results[0])
	assert.NotEqual(t, task.StartedAt, clone.StartedAt)
}
