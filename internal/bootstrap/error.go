package bootstrap

import "fmt"

// StepError reports the first failed step of a run. Phase is empty when the
// failure happened in a preflight step.
type StepError struct {
	Phase string
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("phase %q, step %q failed: %v", e.Phase, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
