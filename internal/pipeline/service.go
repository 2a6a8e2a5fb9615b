// Package pipeline builds the work plan for a course directory and publishes
// it to a chat, one video message per media file.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tgcourse/internal/model"
	"tgcourse/internal/progress"
	"tgcourse/internal/thumb"
	"tgcourse/internal/util"
	"tgcourse/internal/util/media"
)

// DefaultDelay is the pause after every attempted upload.
const DefaultDelay = 2 * time.Second

// Preview dimensions announced with every video.
const (
	VideoWidth  = 1280
	VideoHeight = 720
)

// ErrNoContent is returned when the course holds no videos at all.
var ErrNoContent = &progress.Failure{Message: "No valid video content found!"}

// Sender publishes messages to a chat.
type Sender interface {
	SendText(ctx context.Context, target, text string) error
	SendVideo(ctx context.Context, target string, v model.VideoUpload) error
}

// Thumbnailer writes a still preview of a video to out.
type Thumbnailer interface {
	Generate(ctx context.Context, video, out string) error
}

// Service orchestrates header → sections → videos → index for one course.
type Service struct {
	sender   Sender
	thumbs   Thumbnailer
	reporter progress.Reporter
	target   string
	credit   string
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	runID    string
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSender sets the messaging client.
func WithSender(snd Sender) Option {
	return func(s *Service) {
		s.sender = snd
	}
}

// WithThumbnailer sets the preview generator.
func WithThumbnailer(t Thumbnailer) Option {
	return func(s *Service) {
		s.thumbs = t
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithTarget sets the destination chat.
func WithTarget(target string) Option {
	return func(s *Service) {
		s.target = target
	}
}

// WithCredit sets the text appended to every caption.
func WithCredit(credit string) Option {
	return func(s *Service) {
		s.credit = credit
	}
}

// WithDelay overrides the pacing delay between uploads.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		s.delay = d
	}
}

// WithSleep replaces the pacing wait (useful for testing).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = fn
	}
}

// WithRunID sets the id attached to log lines.
func WithRunID(id string) Option {
	return func(s *Service) {
		s.runID = id
	}
}

// NewService constructs a Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{delay: DefaultDelay}
	for _, o := range opts {
		o(s)
	}
	if s.reporter == nil {
		s.reporter = progress.ReporterFunc(func(progress.Event) {})
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	s.logger = log.With().Str("run", s.runID).Str("target", s.target).Logger()
	return s
}

// Result summarises a finished run.
type Result struct {
	Units       int
	Uploaded    int
	Failed      int
	IndexChunks int
	Index       string
}

// Run publishes every unit of plan in order. Failures of a single video are
// reported and skipped; any other failure aborts the run and is returned.
func (s *Service) Run(ctx context.Context, plan model.WorkPlan) (Result, error) {
	var res Result
	if s.sender == nil {
		return res, fmt.Errorf("sender is required")
	}

	progress.Info(s.reporter, "🚀 Analyzing: "+plan.Course)
	if len(plan.Units) == 0 || plan.MediaCount() == 0 {
		return res, ErrNoContent
	}

	if err := s.sender.SendText(ctx, s.target, media.CourseHeader(plan.Course)); err != nil {
		return res, fmt.Errorf("send course header: %w", err)
	}

	index := media.NewIndex(plan.Course)
	total := len(plan.Units)
	for i, unit := range plan.Units {
		progress.Info(s.reporter, "Processing: "+unit.Name)
		if err := s.sender.SendText(ctx, s.target, media.SectionHeader(unit.Name)); err != nil {
			return res, fmt.Errorf("send section %s: %w", unit.Name, err)
		}
		index.Section(unit.Name)

		items, err := ListMedia(unit.SourcePath)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", unit.Name, err)
		}
		if len(items) == 0 {
			s.logger.Warn().Str("unit", unit.Name).Msg("unit has no videos")
		}
		for j, file := range items {
			progress.Percent(s.reporter, "Uploading: "+file, Progress(i, total, j, len(items)))

			if s.uploadOne(ctx, filepath.Join(unit.SourcePath, file)) {
				index.Entry(media.Title(file))
				res.Uploaded++
			} else {
				progress.Error(s.reporter, "Fail: "+file)
				res.Failed++
			}
			if err := s.sleep(ctx, s.delay); err != nil {
				return res, err
			}
		}
		res.Units++
	}

	res.Index = index.String()
	for _, chunk := range media.BalanceBold(media.Chunk(res.Index, media.MaxMessageRunes)) {
		if err := s.sender.SendText(ctx, s.target, chunk); err != nil {
			return res, fmt.Errorf("send index: %w", err)
		}
		res.IndexChunks++
	}

	s.logger.Info().Int("uploaded", res.Uploaded).Int("failed", res.Failed).Msg("run finished")
	return res, nil
}

// uploadOne sends a single video and reports whether it was accepted.
// The preview file never outlives the call.
func (s *Service) uploadOne(ctx context.Context, path string) bool {
	l := s.logger.With().Str("file", path).Logger()

	up := model.VideoUpload{
		Path:              path,
		Caption:           media.Caption(media.Title(path), s.credit),
		Width:             VideoWidth,
		Height:            VideoHeight,
		SupportsStreaming: true,
	}

	thumbPath := thumb.PathFor(path)
	defer func() {
		if err := util.RemoveIfExists(thumbPath); err != nil {
			l.Warn().Err(err).Msg("remove preview")
		}
	}()
	if s.thumbs != nil {
		if err := s.thumbs.Generate(ctx, path, thumbPath); err != nil {
			l.Debug().Err(err).Msg("uploading without preview")
		} else {
			up.ThumbPath = thumbPath
		}
	}

	start := time.Now()
	if err := s.sender.SendVideo(ctx, s.target, up); err != nil {
		l.Error().Err(err).Msg("upload failed")
		return false
	}
	l.Info().Dur("took", time.Since(start)).Bool("preview", up.ThumbPath != "").Msg("uploaded")
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
