package buildspec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/riskline/mlship/internal/model"
)

// Validate checks the resolved plan for structural problems that would
// make the build fail or produce a broken image. It collects all
// violations before returning so the user can fix the manifest in one
// pass rather than replaying the command per error.
func (p *Plan) Validate() error {
	var problems []string

	if err := model.ValidateName(p.Name); err != nil {
		problems = append(problems, err.Error())
	}

	if p.BaseImage == "" {
		problems = append(problems, "baseImage must not be empty")
	}

	if p.Port < 1 || p.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range (1-65535)", p.Port))
	}

	if len(p.Entrypoint) == 0 {
		problems = append(problems, "entrypoint must not be empty")
	}

	if p.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative (got %d)", p.Workers))
	}

	if !strings.HasPrefix(p.Workdir, "/") {
		problems = append(problems, fmt.Sprintf("workdir %q must be an absolute path", p.Workdir))
	}

	if p.HasRequirements() {
		if err := validateContextRelative(p.RequirementsFile); err != nil {
			problems = append(problems, fmt.Sprintf("requirementsFile: %v", err))
		}
	}

	for _, pkg := range p.SystemPackages {
		// Package names are interpolated into a RUN instruction, so
		// shell metacharacters are rejected outright.
		if pkg == "" || strings.ContainsAny(pkg, " \t\n;&|$`\"'\\") {
			problems = append(problems, fmt.Sprintf("invalid system package name %q", pkg))
		}
	}

	for key := range p.Env {
		if key == "" || strings.ContainsAny(key, " \t\n=") {
			problems = append(problems, fmt.Sprintf("invalid environment variable name %q", key))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid manifest: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CheckRequirementsExist verifies that the requirements manifest is
// present in the context directory. Separated from Validate because the
// file only needs to exist at build time, not when the manifest is
// merely inspected.
func (p *Plan) CheckRequirementsExist() error {
	if !p.HasRequirements() {
		return nil
	}
	path := filepath.Join(p.ContextDir, p.RequirementsFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("requirements manifest %s not found: %w", path, err)
	}
	return nil
}

// validateContextRelative rejects paths that are absolute or escape the
// build context via "..". Everything COPYed into the image must come
// from inside the context directory.
func validateContextRelative(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("path %q must be relative to the application directory", path)
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path %q escapes the application directory", path)
	}
	return nil
}
