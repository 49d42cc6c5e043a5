package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bitfield/script"

	"radlab-launcher/internal/bootstrap"
	"radlab-launcher/internal/config"
	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

var requirementLine = regexp.MustCompile(`^\s*(#.*)?$`)

// PipRequirements returns an action installing every package listed in path.
// Only packages that were not installed before the step are recorded, so a
// rollback never removes what the user already had.
func (in *Installer) PipRequirements(path string) bootstrap.Action {
	return func(ctx context.Context) ([]manifest.Artifact, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("requirements file: %w", err)
		}

		count, err := script.File(path).RejectRegexp(requirementLine).CountLines()
		if err != nil {
			return nil, fmt.Errorf("read requirements %s: %w", path, err)
		}

		before, err := in.pipPackages(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("[INFO] Installing %d python requirement(s) from %s\n", count, path)
		_, installErr := in.exec.Run(ctx, in.cfg.WorkDir, in.cfg.Pip, "install", "--no-cache-dir", "-r", path)

		// pip may have installed part of the set before failing or being interrupted.
		after, err := in.pipPackages(context.WithoutCancel(ctx))
		if err != nil {
			return nil, errors.Join(installErr, err)
		}
		added := addedPackages(before, after)
		if len(added) == 0 {
			logger.Debug("[DEBUG] No new python packages from %s\n", path)
			return nil, installErr
		}
		logger.Debug("[DEBUG] New python packages from %s: %s\n", path, strings.Join(added, ", "))
		return []manifest.Artifact{{Kind: manifest.KindPackages, Path: path, Packages: added}}, installErr
	}
}

// InstallTerraform installs the infra-as-code binary with the configured method.
func (in *Installer) InstallTerraform(ctx context.Context) ([]manifest.Artifact, error) {
	logger.Debug("[DEBUG] InstallTerraform: method %s\n", in.cfg.Terraform.Method)

	switch in.cfg.Terraform.Method {
	case config.MethodScript:
		logger.Info("[INFO] Installing Terraform with %s...\n", in.cfg.Terraform.Script)
		return nil, in.runInstallerScript(ctx, in.cfg.Terraform.Script)
	case config.MethodRelease:
		logger.Info("[INFO] Installing Terraform %s from releases.hashicorp.com...\n", in.cfg.Terraform.Version)
		return in.installTerraformRelease(ctx)
	default:
		return nil, fmt.Errorf("unknown terraform install method %q", in.cfg.Terraform.Method)
	}
}

// InstallCloudSDK installs the cloud SDK and the cluster CLI with the configured method.
func (in *Installer) InstallCloudSDK(ctx context.Context) ([]manifest.Artifact, error) {
	logger.Debug("[DEBUG] InstallCloudSDK: method %s\n", in.cfg.CloudSDK.Method)

	switch in.cfg.CloudSDK.Method {
	case config.MethodScript:
		logger.Info("[INFO] Installing Cloud SDK and kubectl with %s...\n", in.cfg.CloudSDK.Script)
		return nil, in.runInstallerScript(ctx, in.cfg.CloudSDK.Script)
	case config.MethodArchive:
		logger.Info("[INFO] Installing Cloud SDK from %s...\n", in.cfg.CloudSDK.URL)
		return in.installCloudSDKArchive(ctx)
	default:
		return nil, fmt.Errorf("unknown cloud sdk install method %q", in.cfg.CloudSDK.Method)
	}
}

// runInstallerScript runs one of the python installers shipped in the tool directory.
// What those scripts install is opaque to the launcher, so nothing is recorded.
func (in *Installer) runInstallerScript(ctx context.Context, name string) error {
	path := in.cfg.ToolPath(name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("installer script: %w", err)
	}
	_, err := in.exec.Run(ctx, in.cfg.WorkDir, in.cfg.Python, path)
	return err
}
