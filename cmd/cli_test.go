package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/clipmind/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "clipmind dev")
}

func TestAskWithoutVideoAsksForUpload(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "ask", "--session", "s1", "--quiet", "Transcribe the video")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Please upload a video first")

	stdout, _, err = executeCLI(t, home, "session", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Human:")
	assert.Contains(t, stdout, "Transcribe the video")
}

func TestAskTranscribesThenReusesTranscript(t *testing.T) {
	home := t.TempDir()
	tools := installFakeAgents(t, home)
	video := writeVideoFixture(t, home)

	stdout, _, err := executeCLI(t, home, "ask", "--session", "s1", "--video", video, "--quiet", "Transcribe the video")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Here is the transcript")
	assert.Contains(t, stdout, "hello there")

	stdout, _, err = executeCLI(t, home, "ask", "--session", "s1", "--quiet", "Transcribe it again please, the transcript")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hello there")
	assert.Equal(t, 2, tools.calls(t, "transcription"))

	stdout, _, err = executeCLI(t, home, "ask", "--session", "s1", "--quiet", "Show me the transcript")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Here is the transcript I already have")
	assert.Equal(t, 2, tools.calls(t, "transcription"))
}

func TestAskCreatesPDFSummary(t *testing.T) {
	home := t.TempDir()
	tools := installFakeAgents(t, home)
	video := writeVideoFixture(t, home)

	stdout, _, err := executeCLI(t, home, "ask", "--session", "s1", "--video", video, "--quiet", "Create a PDF summary")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Your PDF is ready")
	assert.Equal(t, 1, tools.calls(t, "transcription"))
	assert.Equal(t, 1, tools.calls(t, "vision"))
	assert.Equal(t, 1, tools.calls(t, "planner"))

	reports, err := filepath.Glob(filepath.Join(home, ".clipmind", "reports", "*.pdf"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	data, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}

func TestAskJSONOutput(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "ask", "--session", "s1", "--json", "banana bread")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"SessionID\": \"s1\"")
	assert.Contains(t, stdout, "\"Outcome\": \"clarification\"")
}

func TestAskRendersReplyAndSpinner(t *testing.T) {
	home := t.TempDir()
	installFakeAgents(t, home)
	video := writeVideoFixture(t, home)

	stdout, stderr, err := executeCLI(t, home, "ask", "--session", "s1", "--video", video, "Transcribe the video")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hello there")
	assert.Contains(t, stderr, "Thinking about your video")
}

func TestAskRejectsMissingVideoFile(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "ask", "--session", "s1", "--video", filepath.Join(home, "nope.mp4"), "Transcribe the video")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestAskRejectsInvalidSessionID(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "ask", "--session", "../escape", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session id")
}

func TestSessionListShowClear(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "ask", "--session", "alpha", "--quiet", "banana bread")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "ask", "--session", "beta", "--quiet", "banana bread")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alpha")
	assert.Contains(t, stdout, "beta")

	stdout, _, err = executeCLI(t, home, "session", "list", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))

	stdout, _, err = executeCLI(t, home, "session", "clear", "alpha")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cleared session alpha")

	_, _, err = executeCLI(t, home, "session", "show", "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")

	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "alpha")
}

func TestSessionClearAllRemovesSessionsAndDocuments(t *testing.T) {
	home := t.TempDir()
	installFakeAgents(t, home)
	video := writeVideoFixture(t, home)

	_, _, err := executeCLI(t, home, "ask", "--session", "alpha", "--quiet", "banana bread")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "ask", "--session", "beta", "--video", video, "--quiet", "Create a PDF summary")
	require.NoError(t, err)

	reports, err := filepath.Glob(filepath.Join(home, ".clipmind", "reports", "*.pdf"))
	require.NoError(t, err)
	require.Len(t, reports, 1)

	_, _, err = executeCLI(t, home, "session", "clear", "--all", "alpha")
	require.Error(t, err)

	stdout, _, err := executeCLI(t, home, "session", "clear", "--all", "--documents")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cleared 2 sessions")

	stdout, _, err = executeCLI(t, home, "session", "list", "--json")
	require.NoError(t, err)
	var summaries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &summaries))
	assert.Empty(t, summaries)
	assert.NoFileExists(t, reports[0])
}

func TestVerboseLogsToCommandStderr(t *testing.T) {
	home := t.TempDir()

	stdout, stderr, err := executeCLI(t, home, "ask", "--verbose", "--session", "s1", "--quiet", "banana bread")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "intent classified")
	assert.Contains(t, stderr, "intent classified")
}

func TestSessionExportYAML(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "ask", "--session", "s1", "--quiet", "banana bread")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "export", "s1", "--format", "yaml")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, "s1", decoded["id"])
	assert.Contains(t, stdout, "utterance: banana bread")

	target := filepath.Join(home, "out", "s1.json")
	_, _, err = executeCLI(t, home, "session", "export", "s1", "--format", "json", "--output", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestSessionExportRejectsUnknownFormat(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "export", "s1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestSQLiteBackendPersistsAcrossRuns(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CLIPMIND_SESSIONS_BACKEND", "sqlite")

	_, _, err := executeCLI(t, home, "ask", "--session", "s1", "--quiet", "banana bread")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "banana bread")
	assert.FileExists(t, filepath.Join(home, ".clipmind", "sessions.db"))
}

func TestInvalidConfigSurfacesOnRun(t *testing.T) {
	t.Setenv("CLIPMIND_SESSIONS_BACKEND", "redis")

	_, _, err := executeCLI(t, t.TempDir(), "ask", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported sessions backend")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

type fakeAgents struct {
	dir string
}

// installFakeAgents writes shell scripts speaking the agent protocol and points the config at them.
func installFakeAgents(t *testing.T, home string) fakeAgents {
	t.Helper()

	dir := filepath.Join(home, "agents")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	scripts := map[string]string{
		"transcription": `{"segments":[{"start":0,"end":1.5,"text":"hello there"}]}`,
		"sampler":       `{"frames":[{"index":0,"timestamp":0,"text":"frame-0.jpg"}]}`,
		"vision":        `{"description":"a cat sits on a sofa","detections":[{"label":"cat","confidence":0.92,"frame_index":0}]}`,
		"planner":       `{"tool_name":"generate_file","args":{"file_type":"pdf","title":"Clip summary","sections":[{"heading":"Overview","content":"A cat."}],"output_path":"clip summary"}}`,
		"renderer":      `%PDF-1.4 fake`,
	}
	for name, output := range scripts {
		script := strings.Join([]string{
			"#!/bin/sh",
			"cat > /dev/null",
			fmt.Sprintf("echo call >> %q", filepath.Join(dir, name+".calls")),
			"sleep 0.2",
			fmt.Sprintf("printf '%%s' '%s'", output),
			"",
		}, "\n")
		path := filepath.Join(dir, name+".sh")
		require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
		t.Setenv("CLIPMIND_AGENTS_"+strings.ToUpper(name), path)
	}

	return fakeAgents{dir: dir}
}

func (f fakeAgents) calls(t *testing.T, name string) int {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(f.dir, name+".calls"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "call")
}

func writeVideoFixture(t *testing.T, home string) string {
	t.Helper()

	path := filepath.Join(home, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestTurnSpinnerShowsElapsedSeconds(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	current := start
	model := newTurnSpinnerModel("Thinking about your video...", nil, func() time.Time { return current })
	assert.NotContains(t, model.View(), "0s")
	assert.Contains(t, model.View(), "Thinking about your video...")

	current = start.Add(3 * time.Second)
	updated, _ := model.Update(model.spinner.Tick())
	assert.Contains(t, updated.View(), "Thinking about your video... 3s")

	done, cmd := updated.Update(turnDoneMsg{reply: application.Reply{Text: "ok"}})
	require.NotNil(t, cmd)
	assert.Empty(t, done.View())
	assert.Equal(t, "ok", done.(turnSpinnerModel).reply.Text)
}
