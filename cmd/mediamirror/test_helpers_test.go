package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediamirror/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	source     string
	output     string
}

// setupCLITestEnv builds a small source tree, a config pointing the state
// directory into the test dir, and stub ffmpeg/ffprobe binaries on PATH.
func setupCLITestEnv(t *testing.T, stubs map[string]string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_STATE_HOME", "")

	scripts := map[string]string{
		"ffmpeg":  testsupport.FFmpegStub,
		"ffprobe": testsupport.FFprobeStub,
	}
	for name, script := range stubs {
		scripts[name] = script
	}
	testsupport.StubBinaries(t, scripts)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		stateDir:   filepath.Join(base, "state"),
		source:     filepath.Join(base, "library"),
		output:     filepath.Join(base, "mirror"),
	}
	writeTestConfig(t, env.configPath, env.stateDir, "")

	testsupport.WriteTree(t, env.source, map[string]string{
		"a.mp4":        "video",
		"notes.txt":    "notes",
		"extras/b.srt": "1\n00:00:01,000 --> 00:00:02,000\nhi\n",
	})
	return env
}

func writeTestConfig(t *testing.T, path, stateDir, extraRun string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\n\n[encoding]\nworkers = 2\n\n[run]\nprogress = false\n%s\n[logging]\nlevel = \"error\"\n",
		stateDir,
		extraRun,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if env != nil {
		args = append([]string{"--config", env.configPath}, args...)
	}
	code := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if want != "" && string(data) != want {
		t.Fatalf("%s = %q, want %q", path, data, want)
	}
}
