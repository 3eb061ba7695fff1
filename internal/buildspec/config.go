package buildspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// ManifestFileName is the manifest file looked up in the application
// directory by Load.
const ManifestFileName = "mlship.json"

// Defaults applied when the manifest omits a field. These mirror the
// canonical deployment shape: a slim Python base with the compiler
// toolchain needed for native-extension wheels, pip dependencies from
// requirements.txt, and a gunicorn entrypoint serving app:app on 10000.
const (
	// DefaultBaseImage is the runtime base image.
	DefaultBaseImage = "python:3.10-slim"

	// DefaultRequirementsFile is the dependency manifest installed
	// before the source tree is copied.
	DefaultRequirementsFile = "requirements.txt"

	// DefaultWorkdir is the image working directory the source tree is
	// copied into.
	DefaultWorkdir = "/app"

	// DefaultPort is the port the service binds inside the container.
	DefaultPort = 10000
)

// defaultSystemPackages are the OS packages installed before the
// dependency step. gcc and g++ are required to build any
// native-extension dependencies listed in the requirements manifest.
var defaultSystemPackages = []string{"gcc", "g++"}

// defaultEntrypoint launches a pre-forking WSGI server that resolves
// the "app" callable from the "app" module. Worker count is left to
// the server's own default unless the manifest sets Workers.
var defaultEntrypoint = []string{"gunicorn", "--bind", "0.0.0.0:10000", "app:app"}

// Plan is the fully resolved build plan for one deployment: the raw
// manifest with defaults applied plus the absolute context directory.
// A Plan is what the validator checks and the Dockerfile generator and
// image builder consume.
type Plan struct {
	// Name is the deployment name. Required in the manifest.
	Name string `json:"name"`

	// Image is the tag applied to the built image. Defaults to
	// "<name>:latest".
	Image string `json:"image,omitempty"`

	// BaseImage is the FROM image of the generated Dockerfile.
	BaseImage string `json:"baseImage,omitempty"`

	// SystemPackages are OS packages installed with apt-get in a single
	// layer before dependency installation. The layer always ends by
	// removing the apt lists so no package-manager cache is committed.
	SystemPackages []string `json:"systemPackages,omitempty"`

	// RequirementsFile is the dependency manifest path, relative to the
	// context directory. An explicit empty string ("none" semantics is
	// expressed by `"requirementsFile": ""`) disables the dependency
	// layer entirely.
	RequirementsFile string `json:"requirementsFile,omitempty"`

	// Workdir is the image working directory.
	Workdir string `json:"workdir,omitempty"`

	// Port is the container port the entrypoint binds. Declared via
	// EXPOSE as documentation; publication happens at launch time.
	Port int `json:"port,omitempty"`

	// Entrypoint is the container command in exec form.
	Entrypoint []string `json:"entrypoint,omitempty"`

	// Workers, when > 0, appends "--workers N" to the entrypoint.
	// Zero keeps the server's own default concurrency model.
	Workers int `json:"workers,omitempty"`

	// Env entries are baked into the image as ENV instructions.
	Env map[string]string `json:"env,omitempty"`

	// Ignore lists additional build-context exclusion patterns,
	// merged with the built-in defaults (.git, mlship.json).
	Ignore []string `json:"ignore,omitempty"`

	// ContextDir is the absolute path of the application directory the
	// manifest was loaded from. Set by Load, never read from JSON.
	ContextDir string `json:"-"`

	// requirementsDisabled records that the manifest explicitly set
	// requirementsFile to "" (as opposed to omitting it), which turns
	// the dependency layer off rather than falling back to the default.
	requirementsDisabled bool
}

// rawManifest mirrors Plan for decoding, with RequirementsFile as a
// pointer so "omitted" and "explicitly empty" can be told apart.
type rawManifest struct {
	Name             string            `json:"name"`
	Image            string            `json:"image"`
	BaseImage        string            `json:"baseImage"`
	SystemPackages   []string          `json:"systemPackages"`
	RequirementsFile *string           `json:"requirementsFile"`
	Workdir          string            `json:"workdir"`
	Port             int               `json:"port"`
	Entrypoint       []string          `json:"entrypoint"`
	Workers          int               `json:"workers"`
	Env              map[string]string `json:"env"`
	Ignore           []string          `json:"ignore"`
}

// Load reads and parses the mlship.json manifest from the given
// application directory, applies defaults, and returns the resolved
// Plan. The manifest may contain JSONC comments and trailing commas,
// which are stripped before standard JSON decoding.
//
// Load does not validate the plan; callers should follow up with
// Plan.Validate before building.
func Load(contextDir string) (*Plan, error) {
	absDir, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve context directory %q: %w", contextDir, err)
	}

	manifestPath := filepath.Join(absDir, ManifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}

	return Parse(data, absDir)
}

// Parse decodes manifest bytes into a resolved Plan. Split out from
// Load so tests can exercise parsing without touching the filesystem.
func Parse(data []byte, contextDir string) (*Plan, error) {
	var raw rawManifest
	// jsonc.ToJSON strips comments and trailing commas in place,
	// producing bytes the standard decoder accepts.
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFileName, err)
	}

	plan := &Plan{
		Name:           raw.Name,
		Image:          raw.Image,
		BaseImage:      raw.BaseImage,
		SystemPackages: raw.SystemPackages,
		Workdir:        raw.Workdir,
		Port:           raw.Port,
		Entrypoint:     raw.Entrypoint,
		Workers:        raw.Workers,
		Env:            raw.Env,
		Ignore:         raw.Ignore,
		ContextDir:     contextDir,
	}

	switch {
	case raw.RequirementsFile == nil:
		plan.RequirementsFile = DefaultRequirementsFile
	case *raw.RequirementsFile == "":
		plan.requirementsDisabled = true
	default:
		plan.RequirementsFile = *raw.RequirementsFile
	}

	plan.applyDefaults()
	return plan, nil
}

// applyDefaults fills every unset field with the canonical deployment
// shape documented on the Default* constants.
func (p *Plan) applyDefaults() {
	if p.Image == "" && p.Name != "" {
		p.Image = p.Name + ":latest"
	}
	if p.BaseImage == "" {
		p.BaseImage = DefaultBaseImage
	}
	if p.SystemPackages == nil {
		p.SystemPackages = append([]string(nil), defaultSystemPackages...)
	}
	if p.Workdir == "" {
		p.Workdir = DefaultWorkdir
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if len(p.Entrypoint) == 0 {
		p.Entrypoint = append([]string(nil), defaultEntrypoint...)
	}
}

// HasRequirements reports whether the plan includes a dependency
// installation layer.
func (p *Plan) HasRequirements() bool {
	return !p.requirementsDisabled && p.RequirementsFile != ""
}

// Command returns the container command: the entrypoint plus the
// optional "--workers N" suffix when Workers is set. The returned slice
// is a copy; mutating it does not affect the plan.
func (p *Plan) Command() []string {
	cmd := append([]string(nil), p.Entrypoint...)
	if p.Workers > 0 {
		cmd = append(cmd, "--workers", fmt.Sprintf("%d", p.Workers))
	}
	return cmd
}
