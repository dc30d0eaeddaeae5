package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediamirror/internal/journal"
	"mediamirror/internal/services"
	"mediamirror/internal/testsupport"
)

const failingFFmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.1-stub"
  exit 0
fi
if [ "$2" = "-encoders" ]; then
  printf ' V....D libvpx-vp9           libvpx VP9\n A....D libvorbis            libvorbis\n S..... webvtt               WebVTT subtitle\n'
  exit 0
fi
echo "encoder exploded" >&2
exit 1
`

const audioOnlyFFprobeStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffprobe version 7.1-stub"
  exit 0
fi
cat <<'REPORT'
[STREAM]
index=0
codec_name=mp3
codec_type=audio
[/STREAM]
REPORT
`

func TestHelpVariantsExitWithUsageStatus(t *testing.T) {
	for _, args := range [][]string{
		{"--help"},
		{"-h"},
		{"help"},
		{"HELP"},
		{"-HELP"},
		{"some/dir", "--help"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out, _, code := runCLI(t, nil, args...)
			if code != services.ExitUsage {
				t.Fatalf("exit code = %d, want %d", code, services.ExitUsage)
			}
			requireContains(t, out, "mediamirror <targetDir> [outputDir]")
		})
	}
}

func TestSubcommandHelp(t *testing.T) {
	out, _, code := runCLI(t, nil, "deps", "--help")
	if code != services.ExitUsage {
		t.Fatalf("exit code = %d", code)
	}
	requireContains(t, out, "Check that ffmpeg and ffprobe are installed")
}

func TestMissingTargetIsUsageError(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	_, errOut, code := runCLI(t, env)
	if code != services.ExitUsage {
		t.Fatalf("exit code = %d, want %d", code, services.ExitUsage)
	}
	requireContains(t, errOut, "Error:")
}

func TestMirrorEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, errOut, code := runCLI(t, env, env.source, env.output)
	if code != services.ExitOK {
		t.Fatalf("exit code = %d\nstdout: %s\nstderr: %s", code, out, errOut)
	}
	requireContains(t, out, "Mirror complete")
	requireContains(t, out, "all tasks succeeded")

	root := filepath.Join(env.output, "library")
	got := testsupport.ListTree(t, root)
	want := []string{"a.webm", "extras/b.vtt", "notes.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("mirror tree = %v, want %v", got, want)
	}
	requireFile(t, filepath.Join(root, "a.webm"), "encoded")
	requireFile(t, filepath.Join(root, "notes.txt"), "notes")

	out, _, code = runCLI(t, env, env.source, env.output)
	if code != services.ExitOK {
		t.Fatalf("second run exit code = %d", code)
	}
	requireContains(t, out, "Skipped")
}

func TestDryRunWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, code := runCLI(t, env, env.source)
	if code != services.ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	requireContains(t, out, "Dry run")
	requireContains(t, out, "Videos to encode")
	if _, err := os.Stat(env.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output directory, stat err = %v", err)
	}
	if _, err := os.Stat(env.stateDir); !os.IsNotExist(err) {
		t.Fatalf("expected no state directory, stat err = %v", err)
	}
}

func TestTaskFailuresExitWithTwo(t *testing.T) {
	env := setupCLITestEnv(t, map[string]string{"ffmpeg": failingFFmpegStub})

	out, errOut, code := runCLI(t, env, env.source, env.output)
	if code != services.ExitTaskFailures {
		t.Fatalf("exit code = %d, want %d\nstdout: %s", code, services.ExitTaskFailures, out)
	}
	requireContains(t, out, "library/a.mp4")
	requireContains(t, errOut, "tasks failed")
	requireFile(t, filepath.Join(env.output, "library", "notes.txt"), "notes")
	if _, err := os.Stat(filepath.Join(env.output, "library", "a.webm")); !os.IsNotExist(err) {
		t.Fatalf("failed encode left an output behind: %v", err)
	}
}

func TestTaskFailuresCanBeTolerated(t *testing.T) {
	env := setupCLITestEnv(t, map[string]string{"ffmpeg": failingFFmpegStub})
	writeTestConfig(t, env.configPath, env.stateDir, "fail_on_task_errors = false")

	out, _, code := runCLI(t, env, env.source, env.output)
	if code != services.ExitOK {
		t.Fatalf("exit code = %d, want 0", code)
	}
	requireContains(t, out, "[WARN]")
}

func TestValidationFailureWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t, map[string]string{"ffprobe": audioOnlyFFprobeStub})

	out, errOut, code := runCLI(t, env, env.source, env.output)
	if code != services.ExitUsage {
		t.Fatalf("exit code = %d, want %d", code, services.ExitUsage)
	}
	requireContains(t, out, "no video streams")
	requireContains(t, out, "a.mp4")
	requireContains(t, errOut, "1 file(s) cannot be encoded")
	if _, err := os.Stat(env.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output directory, stat err = %v", err)
	}
}

func TestOutputInsideSourceFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, code := runCLI(t, env, env.source, filepath.Join(env.source, "mirror"))
	if code != services.ExitUsage {
		t.Fatalf("exit code = %d", code)
	}
	requireContains(t, out, "inside the source tree")
}

func TestOutputParentOfSourceFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, code := runCLI(t, env, env.source, env.baseDir)
	if code != services.ExitUsage {
		t.Fatalf("exit code = %d\n%s", code, out)
	}
	requireContains(t, out, "would be inside the source tree")
	for _, rel := range []string{"a.webm", filepath.Join("extras", "b.vtt")} {
		if _, err := os.Stat(filepath.Join(env.source, rel)); !os.IsNotExist(err) {
			t.Fatalf("expected no %s written into the source tree, stat err=%v", rel, err)
		}
	}
}

func TestDepsCommand(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, code := runCLI(t, env, "deps")
	if code != services.ExitOK {
		t.Fatalf("exit code = %d\n%s", code, out)
	}
	requireContains(t, out, "7.1-stub")
	requireContains(t, out, "all required tools available")
}

func TestDepsCommandReportsMissingEncoder(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	ctx := newCommandContext()
	ctx.runner = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[0] == "-version" {
			return []byte("ffmpeg version 6.0\n"), nil
		}
		return []byte(" V....D libvpx-vp9 libvpx VP9\n S..... webvtt WebVTT\n"), nil
	}
	root := newRootCommand(ctx)
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stdout)
	root.SetArgs([]string{"--config", env.configPath, "deps"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected missing dependency error")
	}
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	requireContains(t, stdout.String(), "missing encoders: libvorbis")
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	target := filepath.Join(env.baseDir, "generated", "config.toml")
	out, _, code := runCLI(t, nil, "config", "init", "--path", target)
	if code != services.ExitOK {
		t.Fatalf("config init exit code = %d", code)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, errOut, code := runCLI(t, nil, "config", "init", "--path", target)
	if code == services.ExitOK {
		t.Fatal("expected init to refuse an existing file")
	}
	requireContains(t, errOut, "--overwrite")

	out, _, code = runCLI(t, env, "--workers", "7", "--backend", "drapto", "config", "show")
	if code != services.ExitOK {
		t.Fatalf("config show exit code = %d", code)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "workers = 7")
	requireContains(t, out, "backend = 'drapto'")
	requireContains(t, out, "video_extension = 'mkv'")
}

func TestHistoryListsRunsAndTasks(t *testing.T) {
	env := setupCLITestEnv(t, map[string]string{"ffmpeg": failingFFmpegStub})

	if _, _, code := runCLI(t, env, env.source, env.output); code != services.ExitTaskFailures {
		t.Fatalf("mirror exit code = %d", code)
	}

	out, _, code := runCLI(t, env, "history")
	if code != services.ExitOK {
		t.Fatalf("history exit code = %d", code)
	}
	requireContains(t, out, "partial")
	requireContains(t, out, env.source)

	store, err := journal.OpenPath(filepath.Join(env.stateDir, "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	runs, err := store.RecentRuns(context.Background(), 1)
	store.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("RecentRuns = %v, %v", runs, err)
	}

	out, _, code = runCLI(t, env, "history", runs[0].ID, "--failed")
	if code != services.ExitOK {
		t.Fatalf("history run exit code = %d", code)
	}
	requireContains(t, out, "library/a.mp4")
	requireContains(t, out, "failed")
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("--failed listed a successful task: %s", out)
	}

	_, errOut, code := runCLI(t, env, "history", "no-such-run")
	if code != services.ExitUsage {
		t.Fatalf("unknown run exit code = %d", code)
	}
	requireContains(t, errOut, "no-such-run")

	out, _, code = runCLI(t, env, "history", "--prune", "0")
	if code != services.ExitOK {
		t.Fatalf("prune exit code = %d", code)
	}
	requireContains(t, out, "removed 1 run(s)")
}
