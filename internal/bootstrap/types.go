package bootstrap

import (
	"context"
	"time"

	"radlab-launcher/internal/manifest"
)

// Status is the lifecycle of a step or phase inside one run.
// NotStarted is the zero value: a step the run never reached has no StepResult.
type Status int

const (
	NotStarted Status = iota
	Running
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action performs one step. It returns whatever it left on the host, even on failure,
// so a rollback can find partially installed pieces.
type Action func(ctx context.Context) ([]manifest.Artifact, error)

// Step is a single labelled installation action.
type Step struct {
	Name   string
	Action Action
}

// Phase is a named group of steps sharing one start/complete/fail notice.
// Detail is appended to the start notice only.
type Phase struct {
	Name   string
	Detail string
	Steps  []Step
}

// Plan is the full ordered work of a bootstrap run. Preflight steps run
// before the first phase and print no phase notices.
type Plan struct {
	Preflight []Step
	Phases    []Phase
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Phase     string // empty for preflight steps
	Step      string
	Status    Status
	Err       error
	Artifacts []manifest.Artifact
	Duration  time.Duration
}

// Observer is notified as the run progresses. Callbacks happen on the runner's goroutine.
// StepStarted receives the result in the Running state, StepFinished the final one.
type Observer interface {
	PhaseStarted(p Phase)
	PhaseFinished(p Phase, status Status, err error)
	StepStarted(res StepResult)
	StepFinished(res StepResult)
}
