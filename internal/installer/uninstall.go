package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// Remove undoes the given artifacts in order. It keeps going after a failure so
// as much as possible is cleaned up, and returns every failure joined.
func (in *Installer) Remove(ctx context.Context, artifacts []manifest.Artifact) error {
	var errs []error
	for _, a := range artifacts {
		if err := in.removeArtifact(ctx, a); err != nil {
			logger.Error("[ERROR] Failed to remove %s %s: %v\n", a.Kind, a.Path, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (in *Installer) removeArtifact(ctx context.Context, a manifest.Artifact) error {
	switch a.Kind {
	case manifest.KindFile:
		logger.Debug("[DEBUG] Attempting to remove %s\n", a.Path)
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Info("[INFO] Removed %s\n", a.Path)
	case manifest.KindDir:
		if err := os.RemoveAll(a.Path); err != nil {
			return err
		}
		logger.Info("[INFO] Removed directory %s\n", a.Path)
	case manifest.KindPackages:
		if len(a.Packages) == 0 {
			return nil
		}
		args := append([]string{"uninstall", "-y"}, a.Packages...)
		if _, err := in.exec.Run(ctx, in.cfg.WorkDir, in.cfg.Pip, args...); err != nil {
			return err
		}
		logger.Info("[INFO] Uninstalled python packages %s\n", strings.Join(a.Packages, ", "))
	case manifest.KindBackup:
		if _, err := os.Lstat(a.Backup); err != nil {
			return fmt.Errorf("cannot restore %s: %w", a.Path, err)
		}
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := moveFile(a.Backup, a.Path); err != nil {
			return fmt.Errorf("restore %s: %w", a.Path, err)
		}
		// The per-file backup directory is empty now.
		_ = os.Remove(filepath.Dir(a.Backup))
		logger.Info("[INFO] Restored %s\n", a.Path)
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return nil
}
