package bootstrap

import (
	"context"
	"fmt"
	"time"

	"radlab-launcher/internal/manifest"
)

// Runner executes a Plan strictly in order and stops at the first failed step.
type Runner struct {
	observers []Observer
	now       func() time.Time
}

// Report collects the results of every step that was executed, in order.
// Steps after a failure are never executed and therefore never reported.
type Report struct {
	Results []StepResult
}

// Failure returns the failed step result, if any.
func (r Report) Failure() (StepResult, bool) {
	for _, res := range r.Results {
		if res.Status == Failed {
			return res, true
		}
	}
	return StepResult{}, false
}

// NewRunner returns a Runner notifying the given observers in order.
func NewRunner(observers ...Observer) *Runner {
	return &Runner{observers: observers, now: time.Now}
}

// Run executes the preflight steps and then every phase. On failure it returns
// a *StepError naming the phase and the step that failed, wrapping the cause.
func (r *Runner) Run(ctx context.Context, plan Plan) (Report, error) {
	var report Report

	for _, step := range plan.Preflight {
		res := r.runStep(ctx, "", step)
		report.Results = append(report.Results, res)
		if res.Status == Failed {
			return report, &StepError{Step: res.Step, Err: res.Err}
		}
	}

	for _, phase := range plan.Phases {
		r.each(func(o Observer) { o.PhaseStarted(phase) })

		var failed *StepError
		for _, step := range phase.Steps {
			res := r.runStep(ctx, phase.Name, step)
			report.Results = append(report.Results, res)
			if res.Status == Failed {
				failed = &StepError{Phase: phase.Name, Step: res.Step, Err: res.Err}
				break
			}
		}

		if failed != nil {
			r.each(func(o Observer) { o.PhaseFinished(phase, Failed, failed) })
			return report, failed
		}
		r.each(func(o Observer) { o.PhaseFinished(phase, Completed, nil) })
	}

	return report, nil
}

func (r *Runner) runStep(ctx context.Context, phase string, step Step) StepResult {
	res := StepResult{Phase: phase, Step: step.Name, Status: Running}
	r.each(func(o Observer) { o.StepStarted(res) })

	start := r.now()
	if err := ctx.Err(); err != nil {
		res.Err = err
	} else {
		res.Artifacts, res.Err = invoke(ctx, step)
	}
	res.Duration = r.now().Sub(start)
	res.Status = Completed
	if res.Err != nil {
		res.Status = Failed
	}

	r.each(func(o Observer) { o.StepFinished(res) })
	return res
}

// invoke turns a panicking action into a failed step instead of crashing the run.
func invoke(ctx context.Context, step Step) (artifacts []manifest.Artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if step.Action == nil {
		return nil, fmt.Errorf("step %q has no action", step.Name)
	}
	return step.Action(ctx)
}

func (r *Runner) each(fn func(Observer)) {
	for _, o := range r.observers {
		fn(o)
	}
}
