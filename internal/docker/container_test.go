package docker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskline/mlship/internal/model"
)

// TestStatusFromState maps Docker container states onto the deployment
// lifecycle, including the exit-code split between stopped and failed.
func TestStatusFromState(t *testing.T) {
	assert.Equal(t, model.StatusRunning, statusFromState("running", 0))
	assert.Equal(t, model.StatusRunning, statusFromState("restarting", 0))

	// A clean exit is a stop; a non-zero exit is a failure (e.g., the
	// entrypoint could not import the app module).
	assert.Equal(t, model.StatusStopped, statusFromState("exited", 0))
	assert.Equal(t, model.StatusFailed, statusFromState("exited", 1))
	assert.Equal(t, model.StatusFailed, statusFromState("dead", 137))

	assert.Equal(t, model.StatusStopped, statusFromState("created", 0))
	assert.Equal(t, model.StatusStopped, statusFromState("paused", 0))
}

// TestContainerName verifies the replica suffix rule.
func TestContainerName(t *testing.T) {
	dep := &model.Deployment{Name: "risk-api"}
	assert.Equal(t, "mlship-risk-api", containerName(dep))

	dep.Replica = 2
	assert.Equal(t, "mlship-risk-api-2", containerName(dep))
}

// TestDecodeBuildStream_Success feeds a healthy daemon stream and
// verifies progress forwarding with no error.
func TestDecodeBuildStream_Success(t *testing.T) {
	stream := `{"stream":"Step 1/8 : FROM python:3.10-slim\n"}
{"stream":" ---> abc123\n"}
{"status":"Pulling from library/python"}
{"stream":"Successfully tagged risk-api:latest\n"}
`
	var out strings.Builder
	err := decodeBuildStream(strings.NewReader(stream), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Step 1/8")
	assert.Contains(t, out.String(), "Pulling from library/python")
	assert.Contains(t, out.String(), "Successfully tagged")
}

// TestDecodeBuildStream_ErrorFrame verifies that an errorDetail frame
// aborts the build with the daemon's message, mirroring what happens
// when the dependency manifest references a non-existent package.
func TestDecodeBuildStream_ErrorFrame(t *testing.T) {
	stream := `{"stream":"Step 4/8 : RUN pip install --no-cache-dir -r requirements.txt\n"}
{"errorDetail":{"code":1,"message":"The command '/bin/sh -c pip install --no-cache-dir -r requirements.txt' returned a non-zero code: 1"},"error":"pip install failed"}
`
	err := decodeBuildStream(strings.NewReader(stream), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned a non-zero code: 1")
}

// TestDecodeBuildStream_Malformed verifies that a truncated or
// non-JSON stream is reported as such.
func TestDecodeBuildStream_Malformed(t *testing.T) {
	err := decodeBuildStream(strings.NewReader(`{"stream": "ok"} not-json`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed build stream")
}

// TestDecodeBuildStream_Empty verifies an empty stream (daemon closed
// early) decodes without error — the HTTP layer reports those failures.
func TestDecodeBuildStream_Empty(t *testing.T) {
	assert.NoError(t, decodeBuildStream(strings.NewReader(""), nil))
}
