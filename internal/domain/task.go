package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a generation task.
type TaskStatus string

// Possible task status values. Transitions only ever move forward:
// queued -> running -> succeeded | failed.
const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// IsTerminal returns true if no further state transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// IsValid reports whether s is one of the known status values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusQueued, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
		return true
	}
	return false
}

// CountMin and CountMax bound the number of artifacts a single task may request.
const (
	CountMin = 1
	CountMax = 10
)

// Task is one image-generation request with its own lifecycle state.
// Identity and creation parameters are immutable; only lifecycle fields
// (status, timestamps, results, error) change, and only via the Mark*
// methods so the state machine cannot be bypassed.
type Task struct {
	// ID is the task's unique identifier, assigned at creation.
	ID uuid.UUID

	// Status is the current lifecycle state.
	Status TaskStatus

	// Prompt is the generation prompt. Never empty.
	Prompt string

	// Count is the requested number of artifacts, in [CountMin, CountMax].
	Count int

	// Settings is the endpoint/credential snapshot resolved at creation.
	// It is never re-read from live configuration during execution.
	Settings Settings

	// ReferenceImage holds the base64-encoded reference image for
	// image-to-image mode; empty for text-to-image.
	ReferenceImage string

	// ConfigName is the label of the settings source, retained so the
	// snapshot can be re-resolved after a restart.
	ConfigName string

	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time

	// Results holds the ordered artifact filenames; non-empty only when
	// Status is succeeded.
	Results []string

	// Error holds the failure description; non-empty only when Status is
	// failed.
	Error string
}

// NewTask creates a queued task with a fresh identifier. It validates the
// creation parameters but not the reference-image/count interaction; that
// rule belongs to the creator (see task.Service.Submit).
func NewTask(prompt string, count int, settings Settings, configName, referenceImage string) (*Task, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrValidation)
	}
	if count < CountMin || count > CountMax {
		return nil, fmt.Errorf("%w: count must be between %d and %d", ErrValidation, CountMin, CountMax)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Task{
		ID:             uuid.New(),
		Status:         TaskStatusQueued,
		Prompt:         prompt,
		Count:          count,
		Settings:       settings,
		ReferenceImage: referenceImage,
		ConfigName:     configName,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// canTransition reports whether moving from the current status to next is a
// legal edge of the lifecycle state machine.
func (t *Task) canTransition(next TaskStatus) bool {
	switch t.Status {
	case TaskStatusQueued:
		return next == TaskStatusRunning
	case TaskStatusRunning:
		return next == TaskStatusSucceeded || next == TaskStatusFailed
	}
	return false
}

// MarkRunning transitions the task to running and stamps StartedAt.
func (t *Task) MarkRunning(now time.Time) error {
	if !t.canTransition(TaskStatusRunning) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.Status, TaskStatusRunning)
	}
	t.Status = TaskStatusRunning
	started := now.UTC()
	t.StartedAt = &started
	return nil
}

// MarkSucceeded transitions the task to succeeded with the produced artifact
// filenames and stamps FinishedAt.
func (t *Task) MarkSucceeded(now time.Time, results []string) error {
	if !t.canTransition(TaskStatusSucceeded) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.Status, TaskStatusSucceeded)
	}
	t.Status = TaskStatusSucceeded
	t.Results = results
	t.Error = ""
	finished := now.UTC()
	t.FinishedAt = &finished
	return nil
}

// MarkFailed transitions the task to failed with a human-readable error
// description and stamps FinishedAt.
func (t *Task) MarkFailed(now time.Time, errMsg string) error {
	if !t.canTransition(TaskStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.Status, TaskStatusFailed)
	}
	t.Status = TaskStatusFailed
	t.Results = nil
	t.Error = errMsg
	finished := now.UTC()
	t.FinishedAt = &finished
	return nil
}

// TaskSnapshot is the JSON representation of a task exposed to API callers
// and WebSocket observers.
type TaskSnapshot struct {
	ID         string     `json:"id"`
	Status     TaskStatus `json:"status"`
	Prompt     string     `json:"prompt"`
	Count      int        `json:"count"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Results    []string   `json:"results"`
	Error      *string    `json:"error"`
}

// Snapshot returns the externally visible view of the task. Results is
// always a non-nil slice and Error is null unless the task failed, matching
// the wire contract observers depend on.
func (t *Task) Snapshot() TaskSnapshot {
	results := t.Results
	if results == nil {
		results = []string{}
	}
	var errMsg *string
	if t.Error != "" {
		e := t.Error
		errMsg = &e
	}
	return TaskSnapshot{
		ID:         t.ID.String(),
		Status:     t.Status,
		Prompt:     t.Prompt,
		Count:      t.Count,
		CreatedAt:  t.CreatedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		Results:    results,
		Error:      errMsg,
	}
}

// Clone returns a deep copy of the task. Workers mutate their own copy of
// lifecycle state; callers reading through the queue service always receive
// clones so concurrent reads never observe a half-applied transition.
func (t *Task) Clone() *Task {
	c := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		c.StartedAt = &started
	}
	if t.FinishedAt != nil {
		finished := *t.FinishedAt
		c.FinishedAt = &finished
	}
	if t.Results != nil {
		c.Results = append([]string(nil), t.Results...)
	}
	return &c
}
