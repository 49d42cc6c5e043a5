package manifest

import (
	"encoding/json" // For JSON encoding and decoding of the manifest file
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"radlab-launcher/internal/logger"
)

// Artifact kinds recorded by the installer steps.
const (
	KindFile     = "file"     // a file the launcher created, e.g. the terraform binary or the rad shim
	KindDir      = "dir"      // a directory tree, e.g. the unpacked cloud SDK
	KindPackages = "packages" // python packages that were absent before the step ran
	KindBackup   = "backup"   // a file the launcher replaced; the original is kept at Backup
)

// Artifact is one thing a step left on the host.
// Path is the requirements file for KindPackages and the replaced file for KindBackup.
type Artifact struct {
	Kind     string   `json:"kind"`
	Path     string   `json:"path"`
	Backup   string   `json:"backup,omitempty"`
	Packages []string `json:"packages,omitempty"`
}

// StepRecord is what the manifest remembers about a finished step.
type StepRecord struct {
	Run       string     `json:"run"`
	Phase     string     `json:"phase,omitempty"`
	Step      string     `json:"step"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Finished  time.Time  `json:"finished"`
}

// Manifest holds the record of every step the launcher executed on this host,
// across runs. Steps are appended in execution order.
type Manifest struct {
	Runs  []string     `json:"runs"`
	Steps []StepRecord `json:"steps"`
}

// NewRunID returns the identifier stamped on every record of one bootstrap run.
func NewRunID() string {
	return uuid.NewString()
}

// Load reads the manifest at path. A missing file yields an empty manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest as indented JSON, creating the parent directory if needed.
func Save(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	logger.Debug("[DEBUG] Writing manifest to %s (%d steps)\n", path, len(m.Steps))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// StartRun registers a new run ID.
func (m *Manifest) StartRun(run string) {
	m.Runs = append(m.Runs, run)
}

// Add appends a step record.
func (m *Manifest) Add(rec StepRecord) {
	m.Steps = append(m.Steps, rec)
}

// Artifacts returns the artifacts recorded for run, or for every run when run is empty,
// newest first so they can be removed in reverse installation order.
func (m *Manifest) Artifacts(run string) []Artifact {
	var out []Artifact
	for i := len(m.Steps) - 1; i >= 0; i-- {
		rec := m.Steps[i]
		if run != "" && rec.Run != run {
			continue
		}
		for j := len(rec.Artifacts) - 1; j >= 0; j-- {
			out = append(out, rec.Artifacts[j])
		}
	}
	return out
}

// Forget drops everything recorded for run.
func (m *Manifest) Forget(run string) {
	steps := m.Steps[:0]
	for _, rec := range m.Steps {
		if rec.Run != run {
			steps = append(steps, rec)
		}
	}
	m.Steps = steps

	runs := m.Runs[:0]
	for _, r := range m.Runs {
		if r != run {
			runs = append(runs, r)
		}
	}
	m.Runs = runs
}
