package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfield/script"

	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

const shimTemplate = `#!/bin/sh
# %s -> %s, generated by radlab-launcher
PYTHONPATH=%s${PYTHONPATH:+:$PYTHONPATH}
export PYTHONPATH
exec %s -c 'import sys; from %s import %s; sys.argv[0] = "%s"; sys.exit(%s())' "$@"
`

// RegisterEntryPoint writes the console command shim for the configured entry point.
func (in *Installer) RegisterEntryPoint(ctx context.Context) ([]manifest.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ep := in.cfg.EntryPoint
	module, function, ok := strings.Cut(ep.Target, ":")
	if !ok || module == "" || function == "" {
		return nil, fmt.Errorf("entry point %q must look like package.module:function", ep.Target)
	}

	root := in.cfg.WorkDir
	if err := checkModule(root, module); err != nil {
		return nil, err
	}

	shim := fmt.Sprintf(shimTemplate,
		ep.Command, ep.Target,
		shellQuote(root), shellQuote(in.cfg.Python),
		module, function, ep.Command, function)

	placed, err := in.placeInBin(ep.Command, func(dst string) error {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if _, err := script.Echo(shim).WriteFile(dst); err != nil {
			return err
		}
		return os.Chmod(dst, 0755)
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ep.Command, err)
	}

	logger.Info("[INFO] Registered %s (%s) at %s\n", ep.Command, ep.Target, placed.Path)
	return []manifest.Artifact{placed}, nil
}

// checkModule verifies that module resolves to a python file or package under root.
func checkModule(root, module string) error {
	rel := filepath.Join(strings.Split(module, ".")...)
	candidates := []string{
		filepath.Join(root, rel+".py"),
		filepath.Join(root, rel, "__init__.py"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return nil
		}
	}
	return fmt.Errorf("entry module %s: %w (looked for %s)", module, os.ErrNotExist, strings.Join(candidates, ", "))
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
