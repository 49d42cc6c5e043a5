package installer

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// installCloudSDKArchive downloads and unpacks the SDK, runs its own installer,
// adds the configured components and links gcloud plus the components into the bin dir.
func (in *Installer) installCloudSDKArchive(ctx context.Context) ([]manifest.Artifact, error) {
	installDir := in.cfg.Resolve(in.cfg.InstallDir)

	u, err := url.Parse(in.cfg.CloudSDK.URL)
	if err != nil {
		return nil, fmt.Errorf("cloud sdk url: %w", err)
	}
	archive := filepath.Join(installDir, "downloads", path.Base(u.Path))

	logger.Info("[INFO] Downloading %s to %s\n", in.cfg.CloudSDK.URL, archive)
	if err := in.download(ctx, in.cfg.CloudSDK.URL, archive); err != nil {
		return nil, err
	}
	artifacts := []manifest.Artifact{{Kind: manifest.KindFile, Path: archive}}

	sdkRoot, err := ExtractArchive(archive, installDir)
	if err != nil {
		return artifacts, fmt.Errorf("failed to extract archive: %w", err)
	}
	artifacts = append(artifacts, manifest.Artifact{Kind: manifest.KindDir, Path: sdkRoot})
	logger.Debug("[DEBUG] Extracted cloud sdk to %s\n", sdkRoot)

	if _, err := in.exec.Run(ctx, sdkRoot, "/bin/sh", filepath.Join(sdkRoot, "install.sh"), "--quiet"); err != nil {
		return artifacts, err
	}

	sdkBin := filepath.Join(sdkRoot, "bin")
	gcloud, err := in.sdkExecutable(sdkBin, "gcloud")
	if err != nil {
		return artifacts, err
	}

	if len(in.cfg.CloudSDK.Components) > 0 {
		args := append([]string{"components", "install"}, in.cfg.CloudSDK.Components...)
		args = append(args, "--quiet")
		if _, err := in.exec.Run(ctx, sdkRoot, gcloud, args...); err != nil {
			return artifacts, err
		}
	}

	for _, name := range append([]string{"gcloud"}, in.cfg.CloudSDK.Components...) {
		target, err := in.sdkExecutable(sdkBin, name)
		if err != nil {
			return artifacts, err
		}
		link, err := in.linkBinary(target)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, link)
		logger.Info("[INFO] Linked %s -> %s\n", link.Path, target)
	}
	return artifacts, nil
}

// sdkExecutable finds the executable called exactly name under the SDK bin dir.
func (in *Installer) sdkExecutable(sdkBin, name string) (string, error) {
	found, err := findExecutables(sdkBin, name)
	if err != nil {
		return "", err
	}
	for _, p := range found {
		if filepath.Base(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s not found in %s", name, sdkBin)
}
