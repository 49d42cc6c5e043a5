package installer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// pipPackage is one entry of `pip list --format=json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// normalizePackage folds a distribution name the way pip compares them,
// so "PyYAML", "pyyaml" and "py_yaml" are one package.
func normalizePackage(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(name), "-")
}

// pipPackages returns the installed distributions keyed by normalized name.
func (in *Installer) pipPackages(ctx context.Context) (map[string]string, error) {
	out, err := in.exec.Run(ctx, in.cfg.WorkDir, in.cfg.Pip, "list", "--format=json", "--disable-pip-version-check")
	if err != nil {
		return nil, fmt.Errorf("list installed python packages: %w", err)
	}

	// Output is combined, so warnings printed on stderr may surround the JSON array.
	start, end := bytes.IndexByte(out, '['), bytes.LastIndexByte(out, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("unexpected pip list output: %q", tail(out, outputTailLines))
	}
	var pkgs []pipPackage
	if err := json.Unmarshal(out[start:end+1], &pkgs); err != nil {
		return nil, fmt.Errorf("parse pip list output: %w", err)
	}

	installed := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		installed[normalizePackage(p.Name)] = p.Name
	}
	return installed, nil
}

// addedPackages returns the names present in after but not in before, sorted.
func addedPackages(before, after map[string]string) []string {
	var added []string
	for key, name := range after {
		if _, ok := before[key]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return added
}
