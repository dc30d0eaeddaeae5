package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"

	"mediamirror/internal/inspect"
	"mediamirror/internal/inventory"
	"mediamirror/internal/journal"
	"mediamirror/internal/media/ffprobe"
	"mediamirror/internal/pipeline"
	"mediamirror/internal/runlock"
	"mediamirror/internal/services"
	"mediamirror/internal/testsupport"
	"mediamirror/internal/transcode"
)

// fakeProber answers by file base name.
type fakeProber map[string]*ffprobe.StreamInfo

func (f fakeProber) Probe(_ context.Context, path string) (*ffprobe.StreamInfo, error) {
	info, ok := f[filepath.Base(path)]
	if !ok {
		return nil, errors.New("unexpected probe of " + path)
	}
	return info, nil
}

type call struct {
	op     string
	input  string
	output string
	stream int
}

// fakeTranscoder writes a marker file for every successful call.
type fakeTranscoder struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]bool
}

func (f *fakeTranscoder) record(c call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.fail[filepath.Base(c.input)] {
		return errors.New("encoder exited with status 1")
	}
	return os.WriteFile(c.output, []byte(c.op), 0o644)
}

func (f *fakeTranscoder) Transcode(_ context.Context, req transcode.Request) error {
	return f.record(call{op: "transcode", input: req.Input, output: req.Output})
}

func (f *fakeTranscoder) ExtractSubtitle(_ context.Context, input, output string, streamIndex int) error {
	return f.record(call{op: "extract", input: input, output: output, stream: streamIndex})
}

func (f *fakeTranscoder) ConvertSubtitle(_ context.Context, input, output string) error {
	return f.record(call{op: "convert", input: input, output: output})
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranscoder) extractedStreams() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, c := range f.calls {
		if c.op == "extract" {
			out = append(out, c.stream)
		}
	}
	sort.Ints(out)
	return out
}

func newStream(index int, kind, codec string, fields map[string]string) ffprobe.Stream {
	if fields == nil {
		fields = map[string]string{}
	}
	return ffprobe.Stream{Index: index, CodecName: codec, CodecType: kind, Kind: ffprobe.KindOf(kind), Fields: fields}
}

func simpleVideo() *ffprobe.StreamInfo {
	return &ffprobe.StreamInfo{
		Video:    []ffprobe.Stream{newStream(0, "video", "h264", map[string]string{"width": "1920", "height": "1080"})},
		Audio:    []ffprobe.Stream{newStream(1, "audio", "aac", nil)},
		Metadata: map[string]string{},
	}
}

type fixture struct {
	source string
	output string
	tr     *fakeTranscoder
	opts   pipeline.Options
}

func newFixture(t *testing.T, tree map[string]string, probes fakeProber) *fixture {
	t.Helper()
	base := t.TempDir()
	source := filepath.Join(base, "root")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteTree(t, source, tree)
	output := filepath.Join(base, "out")
	tr := &fakeTranscoder{fail: map[string]bool{}}
	return &fixture{
		source: source,
		output: output,
		tr:     tr,
		opts: pipeline.Options{
			Source:     source,
			Output:     output,
			Config:     testsupport.NewConfig(t),
			Prober:     probes,
			Transcoder: tr,
		},
	}
}

func TestRunMirrorsTree(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.mp4":     "video",
		"sub/b.srt": "1\n00:00:01,000 --> 00:00:02,000\nhi\n",
		"notes.txt": "keep me",
	}, fakeProber{"a.mp4": simpleVideo()})

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if result.Err() != nil {
		t.Fatalf("Err = %v", result.Err())
	}

	got := testsupport.ListTree(t, fx.output)
	want := []string{"root/a.webm", "root/notes.txt", "root/sub/b.vtt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output tree = %v, want %v", got, want)
	}
	data, err := os.ReadFile(filepath.Join(fx.output, "root", "notes.txt"))
	if err != nil || string(data) != "keep me" {
		t.Fatalf("copied content = %q err=%v", data, err)
	}

	c := result.Counts
	if c.Directories != 2 || c.Copied != 1 || c.Encoded != 1 || c.Subtitles != 1 || c.Skipped != 0 || c.BytesCopied != 7 {
		t.Fatalf("unexpected counts: %+v", c)
	}
	if result.RunID == "" || result.DryRun {
		t.Fatalf("unexpected result header: %+v", result)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.mp4":     "video",
		"sub/b.srt": "subs",
		"notes.txt": "keep me",
	}, fakeProber{"a.mp4": simpleVideo()})

	if _, err := pipeline.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := testsupport.ListTree(t, fx.output)
	calls := fx.tr.callCount()

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if fx.tr.callCount() != calls {
		t.Fatalf("second run invoked the transcoder %d more times", fx.tr.callCount()-calls)
	}
	c := result.Counts
	if c.Copied != 0 || c.Encoded != 0 || c.Subtitles != 0 || c.Directories != 0 || c.Skipped != 3 {
		t.Fatalf("second run counts: %+v", c)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("second run failures: %v", result.Failures)
	}
	if got := testsupport.ListTree(t, fx.output); !reflect.DeepEqual(got, first) {
		t.Fatalf("tree changed: %v vs %v", got, first)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.mp4":     "video",
		"sub/b.srt": "subs",
		"notes.txt": "keep me",
	}, fakeProber{"a.mp4": simpleVideo()})
	fx.opts.Output = ""
	fx.opts.Transcoder = nil

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected dry run")
	}
	c := result.Counts
	if c.Directories != 2 || c.Copied != 1 || c.Encoded != 1 || c.Subtitles != 1 {
		t.Fatalf("planned counts: %+v", c)
	}
	if result.Plan.VideosToEncode[0].Streams == nil {
		t.Fatal("expected stream info attached during dry run")
	}
	if _, err := os.Stat(fx.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output dir, got %v", err)
	}
}

func TestRunDryRunSkipsJournal(t *testing.T) {
	fx := newFixture(t, map[string]string{"a.mp4": "video"}, fakeProber{"a.mp4": simpleVideo()})
	fx.opts.Output = ""
	fx.opts.Transcoder = nil
	store := testsupport.MustOpenJournal(t, fx.opts.Config)
	fx.opts.Journal = store

	if _, err := pipeline.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	runs, err := store.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no journaled runs, got %+v", runs)
	}
}

func TestRunValidationFailsBeforeMutation(t *testing.T) {
	noVideo := &ffprobe.StreamInfo{Audio: []ffprobe.Stream{newStream(0, "audio", "aac", nil)}, Metadata: map[string]string{}}
	twoAudio := simpleVideo()
	twoAudio.Audio = append(twoAudio.Audio, newStream(2, "audio", "ac3", nil))

	fx := newFixture(t, map[string]string{
		"a.mp4":     "video",
		"b.mkv":     "video",
		"c.mp4":     "video",
		"notes.txt": "keep me",
	}, fakeProber{"a.mp4": noVideo, "b.mkv": twoAudio, "c.mp4": simpleVideo()})
	fx.opts.Config = testsupport.NewConfig(t, testsupport.WithSingleAudio())

	_, err := pipeline.Run(context.Background(), fx.opts)
	var verr *inspect.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation marker, got %v", err)
	}
	if len(verr.Violations[inspect.ReasonNoVideo]) != 1 || len(verr.Violations[inspect.ReasonMultipleAudio]) != 1 {
		t.Fatalf("violations = %v", verr.Violations)
	}
	if _, err := os.Stat(fx.output); !os.IsNotExist(err) {
		t.Fatalf("expected output untouched, got %v", err)
	}
	if fx.tr.callCount() != 0 {
		t.Fatalf("transcoder called %d times", fx.tr.callCount())
	}
}

func TestRunExtractsSidecarsWithCollisionSuffix(t *testing.T) {
	info := simpleVideo()
	info.Subtitle = []ffprobe.Stream{
		newStream(2, "subtitle", "subrip", map[string]string{"language": "eng"}),
		newStream(3, "subtitle", "hdmv_pgs_subtitle", map[string]string{"language": "eng"}),
		newStream(4, "subtitle", "ass", map[string]string{"language": "en"}),
		newStream(5, "subtitle", "mov_text", map[string]string{"lang": "English"}),
		newStream(6, "subtitle", "subrip", nil),
	}
	fx := newFixture(t, map[string]string{"a.mkv": "video"}, fakeProber{"a.mkv": info})

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testsupport.ListTree(t, fx.output)
	want := []string{"root/a.en.1.vtt", "root/a.en.2.vtt", "root/a.en.vtt", "root/a.un.vtt", "root/a.webm"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output tree = %v, want %v", got, want)
	}
	if streams := fx.tr.extractedStreams(); !reflect.DeepEqual(streams, []int{2, 4, 5, 6}) {
		t.Fatalf("extracted streams = %v", streams)
	}
	if result.Counts.Sidecars != 4 || result.Counts.Encoded != 1 {
		t.Fatalf("counts = %+v", result.Counts)
	}
}

func TestRunSidecarsShareCollidingVideoStem(t *testing.T) {
	withSub := func() *ffprobe.StreamInfo {
		info := simpleVideo()
		info.Subtitle = []ffprobe.Stream{newStream(2, "subtitle", "subrip", map[string]string{"language": "eng"})}
		return info
	}
	fx := newFixture(t, map[string]string{
		"a.mkv": "video",
		"a.mp4": "video",
	}, fakeProber{"a.mkv": withSub(), "a.mp4": withSub()})

	if _, err := pipeline.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testsupport.ListTree(t, fx.output)
	want := []string{"root/a.1.en.vtt", "root/a.1.webm", "root/a.en.vtt", "root/a.webm"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output tree = %v, want %v", got, want)
	}
}

func TestRunGeneratedNamesAvoidCopiedFiles(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.mkv":  "video",
		"a.webm": "already webm",
		"b.srt":  "subs",
		"b.vtt":  "already vtt",
	}, fakeProber{"a.mkv": simpleVideo()})

	if _, err := pipeline.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testsupport.ListTree(t, fx.output)
	want := []string{"root/a.1.webm", "root/a.webm", "root/b.1.vtt", "root/b.vtt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output tree = %v, want %v", got, want)
	}
	data, _ := os.ReadFile(filepath.Join(fx.output, "root", "a.webm"))
	if string(data) != "already webm" {
		t.Fatalf("copied webm overwritten: %q", data)
	}
}

func TestRunIsolatesTaskFailures(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"bad.mp4":   "video",
		"good.mp4":  "video",
		"notes.txt": "keep me",
	}, fakeProber{"bad.mp4": simpleVideo(), "good.mp4": simpleVideo()})
	fx.tr.fail["bad.mp4"] = true

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Failures) != 1 || result.Failures["root/bad.mp4"] == nil {
		t.Fatalf("failures = %v", result.Failures)
	}
	if !errors.Is(result.Err(), services.ErrTaskFailures) {
		t.Fatalf("Err = %v", result.Err())
	}
	if services.ExitCode(result.Err()) != services.ExitTaskFailures {
		t.Fatalf("exit code = %d", services.ExitCode(result.Err()))
	}
	got := testsupport.ListTree(t, fx.output)
	want := []string{"root/good.webm", "root/notes.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("output tree = %v, want %v", got, want)
	}
	if result.Counts.Failed != 1 || result.Counts.Encoded != 1 {
		t.Fatalf("counts = %+v", result.Counts)
	}
}

func TestRunRejectsFileSource(t *testing.T) {
	fx := newFixture(t, map[string]string{"a.txt": "x"}, fakeProber{})
	fx.opts.Source = filepath.Join(fx.source, "a.txt")

	_, err := pipeline.Run(context.Background(), fx.opts)
	if !errors.Is(err, inventory.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	fx := newFixture(t, map[string]string{"notes.txt": "x"}, fakeProber{})
	lock, err := runlock.Acquire(fx.opts.Config.LockDir(), fx.output)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, err = pipeline.Run(context.Background(), fx.opts)
	if !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunRecordsJournal(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"bad.mp4":   "video",
		"notes.txt": "keep me",
	}, fakeProber{"bad.mp4": simpleVideo()})
	fx.tr.fail["bad.mp4"] = true
	store := testsupport.MustOpenJournal(t, fx.opts.Config)
	fx.opts.Journal = store

	result, err := pipeline.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	run, err := store.GetRun(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != journal.RunPartial || run.Counts.Copied != 1 || run.Counts.Failed != 1 {
		t.Fatalf("journaled run = %+v", run)
	}
	tasks, err := store.Tasks(context.Background(), result.RunID, false)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", tasks)
	}
	failed, _ := store.Tasks(context.Background(), result.RunID, true)
	if len(failed) != 1 || failed[0].Label != "root/bad.mp4" || failed[0].Kind != "encode" {
		t.Fatalf("failed tasks = %+v", failed)
	}
}

type recordingProgress struct {
	mu     sync.Mutex
	stages []string
	done   map[string]int
}

func (p *recordingProgress) StageStarted(stage string, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stage)
}

func (p *recordingProgress) TaskDone(stage, _ string, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done[stage]++
}

func (p *recordingProgress) StageFinished(string) {}

func TestRunReportsProgress(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.mp4":     "video",
		"sub/b.srt": "subs",
		"notes.txt": "keep me",
	}, fakeProber{"a.mp4": simpleVideo()})
	progress := &recordingProgress{done: map[string]int{}}
	fx.opts.Progress = progress

	if _, err := pipeline.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStages := []string{
		pipeline.StageInventory, pipeline.StageInspect, pipeline.StageDirs,
		pipeline.StageCopy, pipeline.StageEncode, pipeline.StageSubtitles,
	}
	if !reflect.DeepEqual(progress.stages, wantStages) {
		t.Fatalf("stages = %v", progress.stages)
	}
	if progress.done[pipeline.StageCopy] != 1 || progress.done[pipeline.StageEncode] != 1 || progress.done[pipeline.StageDirs] != 2 {
		t.Fatalf("task counts = %v", progress.done)
	}
}
