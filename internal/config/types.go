package config

// Install methods for the Terraform and Cloud SDK pre-requisites.
const (
	// MethodScript runs the python installer script shipped in the tool directory.
	MethodScript = "script"
	// MethodRelease downloads Terraform from the HashiCorp release server.
	MethodRelease = "release"
	// MethodArchive downloads and unpacks the Cloud SDK archive directly.
	MethodArchive = "archive"
)

// Config describes one bootstrap run. The zero value is not useful; start from Default().
type Config struct {
	// WorkDir is the directory the launcher was started from. Relative paths resolve against it.
	WorkDir string `yaml:"-"`

	Requirements string `yaml:"requirements"` // umbrella requirements file, e.g. requirements.txt
	ToolDir      string `yaml:"tool_dir"`     // sibling directory holding the rad package, e.g. rad
	Python       string `yaml:"python"`       // python interpreter used for scripts and the shim
	Pip          string `yaml:"pip"`          // pip executable

	BinDir     string `yaml:"bin_dir"`     // where binaries and the console shim go; ~/bin is the fallback
	InstallDir string `yaml:"install_dir"` // where unpacked SDKs and downloaded releases live
	LogDir     string `yaml:"log_dir"`
	Manifest   string `yaml:"manifest"`

	Terraform  Terraform  `yaml:"terraform"`
	CloudSDK   CloudSDK   `yaml:"cloud_sdk"`
	EntryPoint EntryPoint `yaml:"entry_point"`
}

// Terraform configures the infra-as-code binary step.
//   - Method: "script" or "release".
//   - Script: installer script inside ToolDir (script method).
//   - Version: exact version ("1.9.5") or constraint (">= 1.5, < 2.0") for the release method.
type Terraform struct {
	Method  string `yaml:"method"`
	Script  string `yaml:"script"`
	Version string `yaml:"version"`
}

// CloudSDK configures the cloud SDK + cluster CLI step.
type CloudSDK struct {
	Method     string   `yaml:"method"`     // "script" or "archive"
	Script     string   `yaml:"script"`     // installer script inside ToolDir
	URL        string   `yaml:"url"`        // SDK archive location (archive method)
	Components []string `yaml:"components"` // gcloud components to add, kubectl by default
}

// EntryPoint is the console command registered in the last phase.
type EntryPoint struct {
	Command string `yaml:"command"` // e.g. rad
	Target  string `yaml:"target"`  // module path and function, e.g. rad.radlab:main
}
