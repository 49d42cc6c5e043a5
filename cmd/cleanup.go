package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// cleanupCmd removes everything recorded in the manifest, newest first.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove binaries, SDKs, python packages and the rad command installed by earlier runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		manifestPath := cfg.Resolve(cfg.Manifest)
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return err
		}
		artifacts := m.Artifacts("")
		if len(artifacts) == 0 {
			logger.Info("[INFO] Nothing recorded in %s. Nothing to clean up.\n", manifestPath)
			return nil
		}

		logger.Info("[INFO] Removing %d artifact(s) from %d run(s)...\n", len(artifacts), len(m.Runs))
		if err := newInstaller(cfg).Remove(cmd.Context(), artifacts); err != nil {
			return fmt.Errorf("cleanup incomplete, manifest kept at %s: %w", manifestPath, err)
		}

		if err := os.Remove(manifestPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove manifest: %w", err)
		}
		logger.Info("[INFO] Cleanup complete\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
