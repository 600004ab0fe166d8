package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runClipmind(t, binaryPath, home, "ask", "--session", "smoke", "--quiet", "Transcribe the video")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Please upload a video first")

	stdout, stderr, err = runClipmind(t, binaryPath, home, "session", "show", "smoke")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Transcribe the video")
	assert.FileExists(t, filepath.Join(home, ".clipmind", "sessions", "smoke.toml"))

	stdout, stderr, err = runClipmind(t, binaryPath, home, "session", "clear", "smoke")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "cleared session smoke")
	assert.NoFileExists(t, filepath.Join(home, ".clipmind", "sessions", "smoke.toml"))
}

func TestSmokeTranscribesThroughAgentCommand(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	video := filepath.Join(home, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0o644))

	calls := filepath.Join(home, "transcription.calls")
	script := filepath.Join(home, "transcribe.sh")
	body := "#!/bin/sh\ncat > /dev/null\necho call >> '" + calls + "'\nprintf '%s' '{\"segments\":[{\"start\":0,\"end\":2,\"text\":\"smoke test transcript\"}]}'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	env := []string{"HOME=" + home, "CLIPMIND_AGENTS_TRANSCRIPTION=" + script}

	stdout, stderr, err := runClipmindEnv(t, binaryPath, env, "ask", "--session", "smoke", "--video", video, "--quiet", "Transcribe the video")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "smoke test transcript")

	stdout, stderr, err = runClipmindEnv(t, binaryPath, env, "ask", "--session", "smoke", "--quiet", "Show me the transcript")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "smoke test transcript")

	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("call")))

	stdout, stderr, err = runClipmindEnv(t, binaryPath, env, "session", "export", "smoke", "--format", "json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "smoke test transcript")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "clipmind-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/clipmind")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build clipmind binary: %s", string(output))
	return binaryPath
}

func runClipmind(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	return runClipmindEnv(t, binaryPath, []string{"HOME=" + home}, args...)
}

func runClipmindEnv(t *testing.T, binaryPath string, env []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
