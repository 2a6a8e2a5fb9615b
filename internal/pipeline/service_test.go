package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"tgcourse/internal/model"
	"tgcourse/internal/progress"
	"tgcourse/internal/thumb"
	"tgcourse/internal/util"
	"tgcourse/internal/util/media"
)

type recordingReporter struct {
	events []progress.Event
}

func (r *recordingReporter) Report(e progress.Event) {
	r.events = append(r.events, e)
}

func (r *recordingReporter) kinds(k progress.Kind) []progress.Event {
	var out []progress.Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

type sentVideo struct {
	upload   model.VideoUpload
	hadThumb bool // preview existed on disk at send time
}

type fakeSender struct {
	texts    []string
	videos   []sentVideo
	failFile map[string]bool // basenames whose upload fails
	textErr  error
}

func (f *fakeSender) SendText(_ context.Context, _ string, text string) error {
	if f.textErr != nil {
		return f.textErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendVideo(_ context.Context, _ string, v model.VideoUpload) error {
	f.videos = append(f.videos, sentVideo{upload: v, hadThumb: v.ThumbPath != "" && util.FileExists(v.ThumbPath)})
	if f.failFile[filepath.Base(v.Path)] {
		return errors.New("FILE_PARTS_INVALID")
	}
	return nil
}

// fakeThumbs writes a preview unless the video is listed in fail.
type fakeThumbs struct {
	fail map[string]bool
}

func (f *fakeThumbs) Generate(_ context.Context, video, out string) error {
	if f.fail[filepath.Base(video)] {
		return errors.New("no frame")
	}
	return os.WriteFile(out, []byte("jpeg"), 0o644)
}

func mkTree(t *testing.T, files ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Course")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if strings.HasSuffix(f, "/") {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestService(snd Sender, rep progress.Reporter, sleeps *int) *Service {
	return NewService(
		WithSender(snd),
		WithThumbnailer(&fakeThumbs{}),
		WithReporter(rep),
		WithTarget("me"),
		WithCredit("Uploaded by @me"),
		WithRunID("test"),
		WithSleep(func(context.Context, time.Duration) error {
			if sleeps != nil {
				*sleeps++
			}
			return nil
		}),
	)
}

func TestBuildPlan_Example(t *testing.T) {
	root := mkTree(t, "a.mp4", "notes.txt", "Week1/lec2.mp4", "Week1/lec1.mkv", "Week1/cover.png")

	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	want := []model.WorkUnit{
		{Name: "Course", SourcePath: root, MediaFiles: []string{"a.mp4"}},
		{Name: "Week1", SourcePath: filepath.Join(root, "Week1"), MediaFiles: []string{"lec1.mkv", "lec2.mp4"}},
	}
	if !reflect.DeepEqual(plan.Units, want) {
		t.Errorf("units = %+v\nwant %+v", plan.Units, want)
	}
	if plan.Course != "Course" {
		t.Errorf("course = %q", plan.Course)
	}
}

func TestBuildPlan_Ordering(t *testing.T) {
	root := mkTree(t, "b/2.MP4", "b/1.mov", "a/x.mkv", "c/", "Z.Mkv")

	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	var names []string
	for _, u := range plan.Units {
		names = append(names, u.Name)
	}
	if want := []string{"Course", "a", "b", "c"}; !reflect.DeepEqual(names, want) {
		t.Errorf("unit order = %v, want %v", names, want)
	}
	if got := plan.Units[2].MediaFiles; !reflect.DeepEqual(got, []string{"1.mov", "2.MP4"}) {
		t.Errorf("unit b files = %v", got)
	}
	if len(plan.Units[3].MediaFiles) != 0 {
		t.Errorf("empty dir should have no files, got %v", plan.Units[3].MediaFiles)
	}
}

func TestBuildPlan_NoRootUnitWithoutRootVideos(t *testing.T) {
	root := mkTree(t, "readme.md", "Week1/lec1.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.Units) != 1 || plan.Units[0].Name != "Week1" {
		t.Errorf("units = %+v", plan.Units)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name           string
		i, total, j, n int
		want           int
	}{
		{name: "spec example unit 2 item 2", i: 1, total: 2, j: 1, n: 2, want: 100},
		{name: "first unit first item", i: 0, total: 2, j: 0, n: 1, want: 50},
		{name: "single unit", i: 0, total: 1, j: 0, n: 4, want: 25},
		{name: "truncates", i: 0, total: 3, j: 0, n: 1, want: 33},
		{name: "empty unit", i: 1, total: 4, j: 0, n: 0, want: 25},
		{name: "empty plan", i: 0, total: 0, j: 0, n: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.i, tt.total, tt.j, tt.n); got != tt.want {
				t.Errorf("Progress(%d,%d,%d,%d) = %d, want %d", tt.i, tt.total, tt.j, tt.n, got, tt.want)
			}
		})
	}
}

func TestRun_PublishesInOrder(t *testing.T) {
	root := mkTree(t, "a.mp4", "Week1/lec1.mkv", "Week1/lec2.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{}
	rep := &recordingReporter{}
	sleeps := 0

	res, err := newTestService(snd, rep, &sleeps).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Uploaded != 3 || res.Failed != 0 || res.IndexChunks != 1 {
		t.Errorf("result = %+v", res)
	}
	if sleeps != 3 {
		t.Errorf("pacing waits = %d, want 3", sleeps)
	}

	wantTexts := []string{
		media.CourseHeader("Course"),
		media.SectionHeader("Course"),
		media.SectionHeader("Week1"),
		"📚 **INDEX: Course**\n\n📂 **Course**\n   ├─ a\n\n📂 **Week1**\n   ├─ lec1\n   ├─ lec2\n\n",
	}
	if !reflect.DeepEqual(snd.texts, wantTexts) {
		t.Errorf("texts =\n%q\nwant\n%q", snd.texts, wantTexts)
	}

	var files []string
	for _, v := range snd.videos {
		files = append(files, filepath.Base(v.upload.Path))
		if !v.hadThumb {
			t.Errorf("%s sent without preview", v.upload.Path)
		}
		if v.upload.Width != 1280 || v.upload.Height != 720 || !v.upload.SupportsStreaming {
			t.Errorf("video hints = %+v", v.upload)
		}
		if util.FileExists(thumb.PathFor(v.upload.Path)) {
			t.Errorf("preview for %s not cleaned up", v.upload.Path)
		}
	}
	if want := []string{"a.mp4", "lec1.mkv", "lec2.mp4"}; !reflect.DeepEqual(files, want) {
		t.Errorf("upload order = %v, want %v", files, want)
	}
	if got := snd.videos[1].upload.Caption; got != "🎥 **lec1**\n\nUploaded by @me" {
		t.Errorf("caption = %q", got)
	}

	var pcts []int
	for _, e := range rep.kinds(progress.KindProgress) {
		pcts = append(pcts, e.Percent)
	}
	if want := []int{50, 75, 100}; !reflect.DeepEqual(pcts, want) {
		t.Errorf("percents = %v, want %v", pcts, want)
	}
	if len(rep.kinds(progress.KindError)) != 0 || len(rep.kinds(progress.KindSuccess)) != 0 {
		t.Errorf("unexpected terminal events: %+v", rep.events)
	}
}

func TestRun_NoContent(t *testing.T) {
	root := mkTree(t, "notes.txt", "Week1/", "Week2/slides.pdf")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{}
	rep := &recordingReporter{}

	_, err = newTestService(snd, rep, nil).Run(context.Background(), plan)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}
	if len(snd.texts) != 0 || len(snd.videos) != 0 {
		t.Errorf("messages sent for empty course: %v %v", snd.texts, snd.videos)
	}
	if got := progress.Message(err, nil); got != "No valid video content found!" {
		t.Errorf("message = %q", got)
	}
}

func TestRun_ItemFailureIsIsolated(t *testing.T) {
	root := mkTree(t, "Week1/lec1.mp4", "Week1/lec2.mp4", "Week2/lec3.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{failFile: map[string]bool{"lec1.mp4": true}}
	rep := &recordingReporter{}
	sleeps := 0
	svc := newTestService(snd, rep, &sleeps)
	svc.thumbs = &fakeThumbs{fail: map[string]bool{"lec2.mp4": true}}

	res, err := svc.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Uploaded != 2 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
	if sleeps != 3 {
		t.Errorf("pacing waits = %d, want 3 (failed items are paced too)", sleeps)
	}
	if len(snd.videos) != 3 {
		t.Fatalf("attempted uploads = %d, want 3", len(snd.videos))
	}
	if snd.videos[1].upload.ThumbPath != "" {
		t.Errorf("lec2 should upload without preview")
	}
	for _, v := range snd.videos {
		if util.FileExists(thumb.PathFor(v.upload.Path)) {
			t.Errorf("preview for %s left on disk", v.upload.Path)
		}
	}
	errs := rep.kinds(progress.KindError)
	if len(errs) != 1 || errs[0].Message != "Fail: lec1.mp4" {
		t.Errorf("error events = %+v", errs)
	}
	if strings.Contains(res.Index, "lec1") {
		t.Errorf("failed item listed in index:\n%s", res.Index)
	}
	if !strings.Contains(res.Index, "   ├─ lec2\n") || !strings.Contains(res.Index, "   ├─ lec3\n") {
		t.Errorf("index missing successes:\n%s", res.Index)
	}
}

func TestRun_EmptyUnitDoesNotCrash(t *testing.T) {
	root := mkTree(t, "a.mp4", "Empty/", "Week1/lec1.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	rep := &recordingReporter{}
	res, err := newTestService(&fakeSender{}, rep, nil).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Units != 3 || res.Uploaded != 2 {
		t.Errorf("result = %+v", res)
	}
	last := -1
	for _, e := range rep.kinds(progress.KindProgress) {
		if e.Percent < last || e.Percent > 100 {
			t.Errorf("percent sequence broken at %d (prev %d)", e.Percent, last)
		}
		last = e.Percent
	}
}

func TestRun_UnitVanishesBeforeProcessing(t *testing.T) {
	root := mkTree(t, "Week1/lec1.mp4", "Week2/lec2.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	// Files are enumerated again at processing time.
	if err := os.Remove(filepath.Join(root, "Week1", "lec1.mp4")); err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{}
	res, err := newTestService(snd, &recordingReporter{}, nil).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Uploaded != 1 || len(snd.videos) != 1 {
		t.Errorf("result = %+v videos=%d", res, len(snd.videos))
	}
}

func TestRun_ConnectionLossAborts(t *testing.T) {
	root := mkTree(t, "a.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{textErr: errors.New("connection closed")}
	_, err = newTestService(snd, &recordingReporter{}, nil).Run(context.Background(), plan)
	if err == nil || !strings.Contains(err.Error(), "connection closed") {
		t.Fatalf("err = %v, want connection error", err)
	}
	if len(snd.videos) != 0 {
		t.Errorf("uploads attempted after header failure")
	}
}

func TestRun_IndexChunking(t *testing.T) {
	var files []string
	for i := 0; i < 120; i++ {
		files = append(files, "Week1/"+strings.Repeat("x", 60)+string(rune('a'+i%26))+strings.Repeat("0", i/26)+".mp4")
	}
	root := mkTree(t, files...)
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	snd := &fakeSender{}
	res, err := newTestService(snd, &recordingReporter{}, nil).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IndexChunks < 2 {
		t.Fatalf("expected chunked index, got %d chunk(s) for %d chars", res.IndexChunks, len(res.Index))
	}
	chunks := snd.texts[len(snd.texts)-res.IndexChunks:]
	unmark := func(s string) string { return strings.ReplaceAll(s, "**", "") }
	if unmark(strings.Join(chunks, "")) != unmark(res.Index) {
		t.Errorf("chunks do not reassemble the index")
	}
	for i, c := range chunks {
		if strings.Count(c, "**")%2 != 0 {
			t.Errorf("chunk %d leaves bold open", i)
		}
	}
}

func TestRun_CancelledDuringPacing(t *testing.T) {
	root := mkTree(t, "a.mp4", "b.mp4")
	plan, err := BuildPlan(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	snd := &fakeSender{}
	svc := NewService(
		WithSender(snd),
		WithReporter(&recordingReporter{}),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	if _, err := svc.Run(ctx, plan); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(snd.videos) != 1 {
		t.Errorf("uploads = %d, want 1", len(snd.videos))
	}
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService()
	if s.delay != DefaultDelay {
		t.Errorf("delay = %v", s.delay)
	}
	if s.runID == "" || s.reporter == nil || s.sleep == nil {
		t.Errorf("defaults not applied: %+v", s)
	}
	if _, err := s.Run(context.Background(), model.WorkPlan{}); err == nil {
		t.Error("expected error without sender")
	}
}
