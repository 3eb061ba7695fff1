package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"

	"github.com/riskline/mlship/internal/buildctx"
	"github.com/riskline/mlship/internal/buildspec"
	"github.com/riskline/mlship/internal/model"
)

// BuildOptions carries the caller-controlled knobs for an image build.
type BuildOptions struct {
	// NoCache disables layer cache reuse for every instruction.
	NoCache bool

	// Pull always attempts to pull a newer version of the base image.
	Pull bool

	// Progress receives the daemon's build output line by line.
	// May be nil to discard progress output.
	Progress io.Writer
}

// buildMessage is one frame of the daemon's JSON build stream. Only the
// fields we act on are decoded; everything else is ignored.
type buildMessage struct {
	Stream      string `json:"stream"`
	Status      string `json:"status"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

// BuildImage builds the plan's image by streaming a tar build context
// to the Docker daemon.
//
// The generated Dockerfile is injected into the context archive, so the
// application directory needs no Dockerfile of its own. The daemon
// applies the requested tag only when every instruction succeeds, which
// preserves the "no partial image is tagged" guarantee: any failing
// step (a bad apt package, an unresolvable requirement) surfaces here
// as an ExitBuildFailed error and leaves no usable image behind.
func BuildImage(ctx context.Context, cli *Client, plan *buildspec.Plan, opts BuildOptions) error {
	if err := plan.CheckRequirementsExist(); err != nil {
		return model.WrapCLIError(model.ExitBuildFailed, "cannot build image", err)
	}

	contextTar, err := buildctx.Archive(plan.ContextDir, []byte(plan.Dockerfile()), plan.Ignore)
	if err != nil {
		return model.WrapCLIError(model.ExitBuildFailed, "failed to assemble build context", err)
	}

	resp, err := cli.Inner().ImageBuild(ctx, contextTar, build.ImageBuildOptions{
		Tags:       []string{plan.Image},
		Dockerfile: "Dockerfile",
		NoCache:    opts.NoCache,
		PullParent: opts.Pull,
		// Intermediate containers are always removed; a failed build
		// should not litter the host.
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("failed to start build for image %q", plan.Image),
			err,
		)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := decodeBuildStream(resp.Body, opts.Progress); err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("build failed for image %q", plan.Image),
			err,
		)
	}

	return nil
}

// decodeBuildStream consumes the daemon's JSON build stream, forwarding
// human-readable progress to w and returning an error when the stream
// carries an error frame. The daemon keeps streaming after emitting
// errorDetail in some failure modes, so decoding continues to EOF and
// the first error wins.
func decodeBuildStream(r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	var buildErr error

	for {
		var msg buildMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("malformed build stream: %w", err)
		}

		if msg.Error != "" && buildErr == nil {
			detail := msg.ErrorDetail.Message
			if detail == "" {
				detail = msg.Error
			}
			buildErr = errors.New(strings.TrimSpace(detail))
		}

		if w == nil {
			continue
		}
		if msg.Stream != "" {
			fmt.Fprint(w, msg.Stream)
		} else if msg.Status != "" {
			fmt.Fprintln(w, msg.Status)
		}
	}

	return buildErr
}

// ImageExists reports whether an image with the given reference is
// present in the daemon's local store. Used by the up command to give a
// "run build first" error instead of a raw daemon 404.
func ImageExists(ctx context.Context, cli *Client, ref string) (bool, error) {
	images, err := cli.Inner().ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker images",
			err,
		)
	}
	return len(images) > 0, nil
}
