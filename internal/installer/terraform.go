package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-version"
	"github.com/hashicorp/hc-install/product"
	"github.com/hashicorp/hc-install/releases"
	"github.com/hashicorp/terraform-exec/tfexec"

	"radlab-launcher/internal/config"
	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// TerraformReleaser downloads a Terraform build matching spec into installDir
// and returns the path of the binary.
type TerraformReleaser interface {
	Install(ctx context.Context, spec, installDir string) (string, error)
}

// TerraformVerifier reports the version of the Terraform binary at execPath.
type TerraformVerifier func(ctx context.Context, workDir, execPath string) (*version.Version, error)

// HashicorpReleases installs Terraform from releases.hashicorp.com with checksum verification.
type HashicorpReleases struct{}

func (HashicorpReleases) Install(ctx context.Context, spec, installDir string) (string, error) {
	exact, constraints, err := config.ParseVersionSpec(spec)
	if err != nil {
		return "", err
	}

	if exact != nil {
		src := &releases.ExactVersion{
			Product:    product.Terraform,
			Version:    exact,
			InstallDir: installDir,
		}
		return src.Install(ctx)
	}
	src := &releases.LatestVersion{
		Product:     product.Terraform,
		Constraints: constraints,
		InstallDir:  installDir,
	}
	return src.Install(ctx)
}

// verifyTerraform asks the binary for its version through terraform-exec.
func verifyTerraform(ctx context.Context, workDir, execPath string) (*version.Version, error) {
	tf, err := tfexec.NewTerraform(workDir, execPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create terraform instance: %w", err)
	}
	v, _, err := tf.Version(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query terraform version: %w", err)
	}
	return v, nil
}

// installTerraformRelease downloads Terraform into <install_dir>/terraform/<spec>,
// copies it into the bin directory and checks the copy reports the requested version.
func (in *Installer) installTerraformRelease(ctx context.Context) ([]manifest.Artifact, error) {
	spec := in.cfg.Terraform.Version
	exact, constraints, err := config.ParseVersionSpec(spec)
	if err != nil {
		return nil, err
	}

	installDir := filepath.Join(in.cfg.Resolve(in.cfg.InstallDir), "terraform")
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return nil, fmt.Errorf("create terraform install dir: %w", err)
	}

	downloaded, err := in.releases.Install(ctx, spec, installDir)
	if err != nil {
		return nil, fmt.Errorf("error installing Terraform %s: %w", spec, err)
	}
	artifacts := []manifest.Artifact{{Kind: manifest.KindFile, Path: downloaded}}
	logger.Debug("[DEBUG] Terraform downloaded to %s\n", downloaded)

	placed, err := in.installBinary(downloaded)
	if err != nil {
		return artifacts, err
	}
	artifacts = append(artifacts, placed)
	binPath := placed.Path

	got, err := in.verify(ctx, installDir, binPath)
	if err != nil {
		return artifacts, err
	}
	switch {
	case exact != nil && !got.Equal(exact):
		return artifacts, fmt.Errorf("installed terraform reports %s, want %s", got, exact)
	case constraints != nil && !constraints.Check(got):
		return artifacts, fmt.Errorf("installed terraform %s does not satisfy %s", got, constraints)
	}

	logger.Info("[INFO] Installed terraform %s at %s\n", got, binPath)
	return artifacts, nil
}
