package models

import "time"

// ExecutionStatus represents the status of a macro execution.
type ExecutionStatus string

const (
	// StatusRunning indicates the execution is currently dispatching steps.
	StatusRunning ExecutionStatus = "running"
	// StatusSuccess indicates every step returned exit code zero.
	StatusSuccess ExecutionStatus = "success"
	// StatusFailed indicates at least one step failed or the macro could not be expanded.
	StatusFailed ExecutionStatus = "failed"
	// StatusCancelled indicates the caller cancelled before all steps ran.
	StatusCancelled ExecutionStatus = "cancelled"
)

// PrimitiveCommand is one device/action/args triple sent to the command server.
type PrimitiveCommand struct {
	Device string   `json:"device"`
	Action string   `json:"action"`
	Args   []string `json:"args"`
	Line   int      `json:"line"`
}

// StepResult is the outcome of dispatching a single PrimitiveCommand.
type StepResult struct {
	Command  PrimitiveCommand `json:"command"`
	Stdout   string           `json:"stdout"`
	Stderr   string           `json:"stderr"`
	ExitCode int              `json:"exitCode"`
	Index    int              `json:"index"`
	Duration time.Duration    `json:"durationNs"`
}

// Failed reports whether the step returned a non-zero exit code.
func (s StepResult) Failed() bool {
	return s.ExitCode != 0
}

// ExecutionResult aggregates all steps of one macro execution.
type ExecutionResult struct {
	StartedAt       time.Time       `json:"startedAt"`
	FinishedAt      *time.Time      `json:"finishedAt"`
	FirstFailedStep *int            `json:"firstFailedStep"`
	ID              string          `json:"id"`
	MacroName       string          `json:"macroName"`
	Status          ExecutionStatus `json:"status"`
	Error           string          `json:"error,omitempty"`
	Arguments       []string        `json:"arguments"`
	Steps           []StepResult    `json:"steps"`
	TotalSteps      int             `json:"totalSteps"`
	Success         bool            `json:"success"`
	Cancelled       bool            `json:"cancelled"`
}

// Done reports whether the execution has reached a terminal status.
func (r *ExecutionResult) Done() bool {
	return r.Status != StatusRunning
}

// Snapshot returns a copy that is safe to hand to another goroutine.
func (r *ExecutionResult) Snapshot() *ExecutionResult {
	out := *r
	out.Arguments = append([]string{}, r.Arguments...)
	out.Steps = append([]StepResult{}, r.Steps...)
	if r.FirstFailedStep != nil {
		idx := *r.FirstFailedStep
		out.FirstFailedStep = &idx
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}
