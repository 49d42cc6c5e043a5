package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"radlab-launcher/internal/bootstrap"
	"radlab-launcher/internal/config"
	"radlab-launcher/internal/installer"
	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// rollback removes the artifacts of a failed run. Off by default: a failed run
// leaves the host as it was at the moment of failure.
var rollback bool

// newInstaller is swapped in tests to avoid touching the host.
var newInstaller = func(cfg config.Config) *installer.Installer {
	return installer.New(cfg, installer.ShellExecutor{})
}

func runBootstrap(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flush, err := logger.InitRunLog(cfg.Resolve(cfg.LogDir), debug)
	if err != nil {
		return err
	}
	defer flush()

	manifestPath := cfg.Resolve(cfg.Manifest)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	run := manifest.NewRunID()
	logger.Run().Infow("bootstrap started", "run", run, "workdir", cfg.WorkDir)
	logger.Debug("[DEBUG] Run %s, manifest %s\n", run, manifestPath)

	in := newInstaller(cfg)
	runner := bootstrap.NewRunner(bootstrap.ConsoleReporter{}, installer.NewManifestRecorder(manifestPath, run, m))

	_, runErr := runner.Run(ctx, in.Plan())
	if runErr == nil {
		logger.Run().Infow("bootstrap completed", "run", run)
		return nil
	}

	if rollback {
		logger.Warn("[WARN] Rolling back run %s...\n", run)
		// The interrupt that may have stopped the run must not stop the cleanup.
		if err := in.Remove(context.WithoutCancel(ctx), m.Artifacts(run)); err != nil {
			logger.Warn("[WARN] Rollback incomplete. Manual cleanup may be required.\n")
		} else {
			m.Forget(run)
			if err := manifest.Save(manifestPath, m); err != nil {
				logger.Warn("[WARN] Could not update manifest: %v\n", err)
			}
		}
	}
	return runErr
}
