package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"radlab-launcher/internal/logger"
)

// commandPattern matches a plain executable name.
var commandPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// entryTargetPattern matches "package.module:function".
var entryTargetPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*:[A-Za-z_][A-Za-z0-9_]*$`)

// Default returns the configuration that reproduces the stock rad setup:
// pip installs, the two python installer scripts from rad/, and a `rad` command
// bound to rad.radlab:main.
func Default(workDir string) Config {
	return Config{
		WorkDir:      workDir,
		Requirements: "requirements.txt",
		ToolDir:      "rad",
		Python:       "python3",
		Pip:          "pip3",
		BinDir:       "/usr/local/bin",
		InstallDir:   "~/.radlab",
		LogDir:       "~/.radlab/logs",
		Manifest:     "~/.radlab/manifest.json",
		Terraform: Terraform{
			Method:  MethodScript,
			Script:  "terraform_installer.py",
			Version: "1.9.5",
		},
		CloudSDK: CloudSDK{
			Method:     MethodScript,
			Script:     "cloudsdk_kubectl_installer.py",
			URL:        "https://dl.google.com/dl/cloudsdk/channels/rapid/google-cloud-sdk.tar.gz",
			Components: []string{"kubectl"},
		},
		EntryPoint: EntryPoint{
			Command: "rad",
			Target:  "rad.radlab:main",
		},
	}
}

// LoadConfig reads an optional YAML file and layers it over Default(workDir).
// A missing file is only an error when required is set (the user passed --config).
func LoadConfig(configFile, workDir string, required bool) (Config, error) {
	cfg := Default(workDir)

	if configFile != "" {
		path := cfg.Resolve(configFile)
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !required:
			logger.Debug("[DEBUG] No config file at %s, using defaults\n", path)
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			logger.Debug("[DEBUG] Loaded config from %s\n", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every run depends on.
func (c Config) Validate() error {
	var errs []error

	if c.Requirements == "" {
		errs = append(errs, errors.New("requirements must not be empty"))
	}
	if c.ToolDir == "" {
		errs = append(errs, errors.New("tool_dir must not be empty"))
	}
	if c.Python == "" || c.Pip == "" {
		errs = append(errs, errors.New("python and pip must not be empty"))
	}

	switch c.Terraform.Method {
	case MethodScript:
		if c.Terraform.Script == "" {
			errs = append(errs, errors.New("terraform.script is required for the script method"))
		}
	case MethodRelease:
		if _, _, err := ParseVersionSpec(c.Terraform.Version); err != nil {
			errs = append(errs, fmt.Errorf("terraform.version: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("terraform.method %q is not one of %s, %s", c.Terraform.Method, MethodScript, MethodRelease))
	}

	switch c.CloudSDK.Method {
	case MethodScript:
		if c.CloudSDK.Script == "" {
			errs = append(errs, errors.New("cloud_sdk.script is required for the script method"))
		}
	case MethodArchive:
		if c.CloudSDK.URL == "" {
			errs = append(errs, errors.New("cloud_sdk.url is required for the archive method"))
		}
	default:
		errs = append(errs, fmt.Errorf("cloud_sdk.method %q is not one of %s, %s", c.CloudSDK.Method, MethodScript, MethodArchive))
	}

	if !commandPattern.MatchString(c.EntryPoint.Command) {
		errs = append(errs, fmt.Errorf("entry_point.command %q is not a valid command name", c.EntryPoint.Command))
	}
	if !entryTargetPattern.MatchString(c.EntryPoint.Target) {
		errs = append(errs, fmt.Errorf("entry_point.target %q must look like package.module:function", c.EntryPoint.Target))
	}

	return errors.Join(errs...)
}

// ParseVersionSpec accepts either an exact version or a constraint.
// Exactly one of the returned values is non-nil on success.
func ParseVersionSpec(spec string) (*version.Version, version.Constraints, error) {
	if spec == "" {
		return nil, nil, errors.New("version must not be empty")
	}
	if v, err := version.NewVersion(spec); err == nil {
		return v, nil, nil
	}
	constraints, err := version.NewConstraint(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("%q is neither a version nor a constraint: %w", spec, err)
	}
	return nil, constraints, nil
}

// Resolve expands a leading ~/ and makes relative paths absolute against WorkDir.
func (c Config) Resolve(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// ToolPath resolves a file inside the tool directory, e.g. rad/requirements.txt.
func (c Config) ToolPath(name string) string {
	return c.Resolve(filepath.Join(c.ToolDir, name))
}
