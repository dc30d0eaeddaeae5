package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"mediamirror/internal/config"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: " ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestCheckerReadsVersionAndEncoders(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg")
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != ffmpeg {
			return nil, errors.New("unexpected binary " + name)
		}
		if len(args) > 0 && args[0] == "-version" {
			return []byte("ffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with gcc\n"), nil
		}
		return []byte(" V....D libvpx-vp9           libvpx VP9 (codec vp9)\n S..... webvtt               WebVTT subtitle\n"), nil
	}
	checker := NewChecker(runner)

	statuses := checker.Check(context.Background(), []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Encoders: []string{"libvpx-vp9", "webvtt"}},
		{Name: "FFmpeg+vorbis", Command: ffmpeg, Encoders: []string{"libvorbis"}},
	})

	if !statuses[0].Available || statuses[0].Version != "7.1" {
		t.Fatalf("unexpected status %#v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail != "missing encoders: libvorbis" {
		t.Fatalf("expected missing encoder detail, got %#v", statuses[1])
	}
}

func TestRequirementsFollowBackend(t *testing.T) {
	cfg := config.Default()
	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "ffmpeg" || reqs[1].Command != "ffprobe" {
		t.Fatalf("unexpected requirements %#v", reqs)
	}
	if len(reqs[0].Encoders) != 3 {
		t.Fatalf("expected vp9 encoders for ffmpeg backend, got %v", reqs[0].Encoders)
	}

	cfg.Encoding.Backend = config.BackendDrapto
	reqs = Requirements(&cfg)
	if len(reqs[0].Encoders) != 1 {
		t.Fatalf("expected only webvtt for drapto backend, got %v", reqs[0].Encoders)
	}
}

func TestParseVersion(t *testing.T) {
	if got := parseVersion("ffprobe version n6.1.1-3ubuntu5 Copyright"); got != "n6.1.1-3ubuntu5" {
		t.Fatalf("unexpected version %q", got)
	}
	if got := parseVersion("garbage"); got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}
