package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// downloadFile downloads url into destPath, creating the parent directory.
func downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to GET %s: HTTP status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close destination file: %s\n", cerr)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write response to file: %w", err)
	}
	logger.Debug("[DEBUG] Downloaded %d bytes to %s\n", n, destPath)
	return nil
}

// copyFile copies src to dst, creating missing directories.
// A zero modeOverride preserves the source permissions.
func copyFile(src, dst string, modeOverride os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	if modeOverride != 0 {
		return os.Chmod(dst, modeOverride)
	}
	stat, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, stat.Mode())
}

// placeInBin puts a file into the configured bin directory, falling back to ~/bin
// when that is not writable. place does the actual work for a given target path.
// It returns the artifact to record for the final location.
func (in *Installer) placeInBin(name string, place func(dst string) error) (manifest.Artifact, error) {
	primary := filepath.Join(in.cfg.Resolve(in.cfg.BinDir), name)
	artifact, err := in.placeAt(primary, place)
	if err == nil {
		return artifact, nil
	}
	logger.Warn("[WARN] Cannot write %s (%v), falling back to home bin directory\n", primary, err)

	homeBin, herr := in.userBinFn()
	if herr != nil {
		return manifest.Artifact{}, fmt.Errorf("cannot determine fallback bin directory: %w", herr)
	}
	if err := os.MkdirAll(homeBin, 0755); err != nil {
		return manifest.Artifact{}, fmt.Errorf("cannot create fallback bin directory: %w", err)
	}
	artifact, err = in.placeAt(filepath.Join(homeBin, name), place)
	if err != nil {
		return manifest.Artifact{}, fmt.Errorf("failed to write %s to fallback location: %w", name, err)
	}
	return artifact, nil
}

// placeAt runs place for dst. Whatever already sits at dst is moved into the
// backup directory first and put back if place fails, so removing the artifact
// later restores the original instead of deleting it.
func (in *Installer) placeAt(dst string, place func(dst string) error) (manifest.Artifact, error) {
	if _, err := os.Lstat(dst); err != nil {
		if err := place(dst); err != nil {
			return manifest.Artifact{}, err
		}
		return manifest.Artifact{Kind: manifest.KindFile, Path: dst}, nil
	}

	backup, err := in.backupFile(dst)
	if err != nil {
		return manifest.Artifact{}, err
	}
	if err := place(dst); err != nil {
		if rerr := moveFile(backup, dst); rerr != nil {
			logger.Error("[ERROR] Could not restore %s from %s: %v\n", dst, backup, rerr)
		}
		return manifest.Artifact{}, err
	}
	logger.Info("[INFO] Replaced %s, original kept at %s\n", dst, backup)
	return manifest.Artifact{Kind: manifest.KindBackup, Path: dst, Backup: backup}, nil
}

// backupFile moves path into a fresh directory under <install_dir>/backups.
func (in *Installer) backupFile(path string) (string, error) {
	root := filepath.Join(in.cfg.Resolve(in.cfg.InstallDir), "backups")
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	dir, err := os.MkdirTemp(root, filepath.Base(path)+"-")
	if err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	backup := filepath.Join(dir, filepath.Base(path))
	if err := moveFile(path, backup); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}

// moveFile renames src to dst, copying when they are on different filesystems.
// Symlinks are moved as links.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		if err := os.Symlink(target, dst); err != nil {
			return err
		}
	} else if err := copyFile(src, dst, 0); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// installBinary copies an executable into the bin directory.
func (in *Installer) installBinary(src string) (manifest.Artifact, error) {
	return in.placeInBin(filepath.Base(src), func(dst string) error {
		return copyFile(src, dst, 0755)
	})
}

// linkBinary symlinks an executable into the bin directory.
// Used for SDK entry points that must stay next to their installation.
func (in *Installer) linkBinary(target string) (manifest.Artifact, error) {
	return in.placeInBin(filepath.Base(target), func(dst string) error {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return os.Symlink(target, dst)
	})
}

func userBinDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "bin"), nil
}
