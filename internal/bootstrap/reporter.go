package bootstrap

import (
	"radlab-launcher/internal/logger"
)

// ConsoleReporter prints the phase notices and per-step progress to the terminal
// and mirrors every event into the run log.
type ConsoleReporter struct{}

func (ConsoleReporter) PhaseStarted(p Phase) {
	title := p.Name
	if p.Detail != "" {
		title += " " + p.Detail
	}
	logger.Banner("\n>>>> INSTALLATION STARTED: %s\n\n", title)
	logger.Run().Infow("phase started", "phase", p.Name)
}

func (ConsoleReporter) PhaseFinished(p Phase, status Status, err error) {
	if status == Failed {
		logger.Error("\n>>>> INSTALLATION FAILED: %s\n\n", p.Name)
		logger.Run().Errorw("phase failed", "phase", p.Name, "error", err)
		return
	}
	logger.Banner("\n>>>> INSTALLATION COMPLETED: %s\n\n", p.Name)
	logger.Run().Infow("phase completed", "phase", p.Name)
}

func (ConsoleReporter) StepStarted(res StepResult) {
	logger.Info("[INFO] %s...\n", res.Step)
	logger.Run().Infow("step started", "phase", res.Phase, "step", res.Step, "status", res.Status.String())
}

func (ConsoleReporter) StepFinished(res StepResult) {
	if res.Status == Failed {
		logger.Error("[ERROR] %s failed: %v\n", res.Step, res.Err)
		logger.Run().Errorw("step failed", "phase", res.Phase, "step", res.Step, "duration", res.Duration, "error", res.Err)
		return
	}
	logger.Debug("[DEBUG] %s finished in %s\n", res.Step, res.Duration)
	logger.Run().Infow("step completed", "phase", res.Phase, "step", res.Step, "duration", res.Duration, "artifacts", len(res.Artifacts))
}
