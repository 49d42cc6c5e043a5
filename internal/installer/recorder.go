package installer

import (
	"time"

	"radlab-launcher/internal/bootstrap"
	"radlab-launcher/internal/logger"
	"radlab-launcher/internal/manifest"
)

// ManifestRecorder persists every finished step of one run into the manifest file,
// so artifacts survive even if the launcher is killed mid-run.
type ManifestRecorder struct {
	Path     string
	Run      string
	Manifest *manifest.Manifest

	now func() time.Time
}

// NewManifestRecorder registers run in m and returns an observer writing to path.
func NewManifestRecorder(path, run string, m *manifest.Manifest) *ManifestRecorder {
	m.StartRun(run)
	return &ManifestRecorder{Path: path, Run: run, Manifest: m, now: time.Now}
}

func (r *ManifestRecorder) PhaseStarted(bootstrap.Phase)                           {}
func (r *ManifestRecorder) PhaseFinished(bootstrap.Phase, bootstrap.Status, error) {}
func (r *ManifestRecorder) StepStarted(bootstrap.StepResult)                       {}

func (r *ManifestRecorder) StepFinished(res bootstrap.StepResult) {
	rec := manifest.StepRecord{
		Run:       r.Run,
		Phase:     res.Phase,
		Step:      res.Step,
		Status:    res.Status.String(),
		Artifacts: res.Artifacts,
		Finished:  r.now().UTC(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	r.Manifest.Add(rec)

	if err := manifest.Save(r.Path, r.Manifest); err != nil {
		logger.Warn("[WARN] Could not update manifest: %v\n", err)
	}
}
