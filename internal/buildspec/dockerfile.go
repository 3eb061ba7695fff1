package buildspec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Dockerfile renders the plan as a Dockerfile. The instruction order is
// a hard contract, not a style choice:
//
//  1. FROM base image
//  2. RUN apt-get install of system packages — must precede dependency
//     installation because native-extension dependencies need the
//     compiler toolchain to build. The layer removes the apt lists in
//     the same RUN so no package-manager cache is committed.
//  3. WORKDIR
//  4. COPY requirements manifest + RUN dependency install — must precede
//     the source copy so the (expensive) dependency layer is reused
//     from cache when only application files change.
//  5. COPY source tree
//  6. ENV entries
//  7. EXPOSE — metadata documenting the intended port mapping; it does
//     not publish the port.
//  8. CMD entrypoint in exec form
//
// Any build step failing aborts the build with a non-zero status; the
// daemon tags nothing on failure, so no partial image becomes usable.
func (p *Plan) Dockerfile() string {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n\n", p.BaseImage)

	if len(p.SystemPackages) > 0 {
		fmt.Fprintf(&b, "RUN apt-get update && \\\n")
		fmt.Fprintf(&b, "    apt-get install -y --no-install-recommends %s && \\\n",
			strings.Join(p.SystemPackages, " "))
		fmt.Fprintf(&b, "    rm -rf /var/lib/apt/lists/*\n\n")
	}

	fmt.Fprintf(&b, "WORKDIR %s\n\n", p.Workdir)

	if p.HasRequirements() {
		// The destination repeats the source path so nested manifests
		// (e.g. deps/requirements.txt) land where the install step reads
		// them; COPY creates intermediate directories as needed.
		fmt.Fprintf(&b, "COPY %s %s\n", p.RequirementsFile, p.RequirementsFile)
		fmt.Fprintf(&b, "RUN pip install --no-cache-dir -r %s\n\n", p.RequirementsFile)
	}

	fmt.Fprintf(&b, "COPY . .\n\n")

	// Sorted keys keep the output deterministic, which matters for both
	// layer caching and the golden tests.
	if len(p.Env) > 0 {
		keys := make([]string, 0, len(p.Env))
		for k := range p.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "ENV %s=%s\n", k, quoteEnvValue(p.Env[k]))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "EXPOSE %d\n\n", p.Port)

	fmt.Fprintf(&b, "CMD %s\n", execForm(p.Command()))

	return b.String()
}

// execForm renders a command slice as a Dockerfile exec-form JSON array,
// e.g. ["gunicorn","--bind","0.0.0.0:10000","app:app"]. Exec form avoids
// a shell wrapper so the entrypoint receives signals directly.
func execForm(cmd []string) string {
	// json.Marshal on a []string cannot fail.
	data, _ := json.Marshal(cmd)
	return string(data)
}

// quoteEnvValue wraps an ENV value in double quotes when it contains
// whitespace or quote characters, escaping as needed.
func quoteEnvValue(v string) string {
	if !strings.ContainsAny(v, " \t\"'\\") {
		return v
	}
	data, _ := json.Marshal(v)
	return string(data)
}
