package installer

import (
	"context"
	"fmt"

	"radlab-launcher/internal/bootstrap"
	"radlab-launcher/internal/config"
)

// Phase and step labels shown to the user and stored in the manifest.
const (
	PhasePrerequisites      = "Pre-requisites"
	PrerequisitesDetail     = "(like terraform binaries, cloud sdk & kubectl)"
	StepToolDependencies    = "Tool dependencies"
	StepSubToolDependencies = "rad dependencies"
	StepTerraform           = "Terraform"
	StepCloudSDK            = "Cloud SDK and kubectl"
	StepRegisterCommand     = "Register command"
)

// Installer builds and performs the concrete steps of a bootstrap run.
type Installer struct {
	cfg       config.Config
	exec      Executor
	releases  TerraformReleaser
	verify    TerraformVerifier
	download  func(ctx context.Context, url, dest string) error
	userBinFn func() (string, error)
}

// New returns an Installer that runs commands through exec and fetches
// Terraform from the HashiCorp release server.
func New(cfg config.Config, exec Executor) *Installer {
	return &Installer{
		cfg:       cfg,
		exec:      exec,
		releases:  HashicorpReleases{},
		verify:    verifyTerraform,
		download:  downloadFile,
		userBinFn: userBinDir,
	}
}

// CommandPhaseName is the label of the registration phase, e.g. "'rad' Command Line Tool".
func CommandPhaseName(command string) string {
	return fmt.Sprintf("'%s' Command Line Tool", command)
}

// Plan returns the ordered steps of a full bootstrap.
func (in *Installer) Plan() bootstrap.Plan {
	return bootstrap.Plan{
		Preflight: []bootstrap.Step{
			{Name: StepToolDependencies, Action: in.PipRequirements(in.cfg.Resolve(in.cfg.Requirements))},
		},
		Phases: []bootstrap.Phase{
			{
				Name:   PhasePrerequisites,
				Detail: PrerequisitesDetail,
				Steps: []bootstrap.Step{
					{Name: StepSubToolDependencies, Action: in.PipRequirements(in.cfg.ToolPath("requirements.txt"))},
					{Name: StepTerraform, Action: in.InstallTerraform},
					{Name: StepCloudSDK, Action: in.InstallCloudSDK},
				},
			},
			{
				Name: CommandPhaseName(in.cfg.EntryPoint.Command),
				Steps: []bootstrap.Step{
					{Name: StepRegisterCommand + " " + in.cfg.EntryPoint.Command, Action: in.RegisterEntryPoint},
				},
			},
		},
	}
}
