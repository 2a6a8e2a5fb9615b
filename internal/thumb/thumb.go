// Package thumb extracts a single still frame from a video with ffmpeg.
package thumb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tgcourse/internal/util"
)

// Suffix is appended to the video path to name its preview.
const Suffix = ".jpg"

// DefaultOffset is the timestamp of the extracted frame.
const DefaultOffset = "00:00:03"

// PathFor returns the preview path that sits next to video.
func PathFor(video string) string {
	return video + Suffix
}

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Offset     string
	Verbose    bool
	Runner     util.CmdRunner
}

// FFmpeg generates previews by shelling out to ffmpeg.
type FFmpeg struct {
	opts Options
}

// New returns an FFmpeg generator with defaults applied.
func New(opts Options) *FFmpeg {
	if opts.Offset == "" {
		opts.Offset = DefaultOffset
	}
	if opts.Runner == nil {
		opts.Runner = util.NewDefaultRunner()
	}
	return &FFmpeg{opts: opts}
}

// MaxSide bounds the preview; Telegram drops video thumbnails above 320px.
const MaxSide = 320

// BuildArgs constructs ffmpeg arguments that write one frame of video to out,
// scaled down to fit MaxSide with the aspect ratio kept.
func BuildArgs(video, out, offset string) []string {
	return []string{
		"-y",
		"-ss", offset,
		"-i", video,
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", MaxSide, MaxSide),
		"-vframes", "1",
		"-q:v", "2",
		out,
	}
}

// Generate writes a preview of video to out. A non-nil error means no
// usable preview exists; any partial output is removed.
func (f *FFmpeg) Generate(ctx context.Context, video, out string) error {
	if f.opts.FFmpegPath == "" {
		return errors.New("ffmpeg path is required")
	}
	_, err := f.opts.Runner.Run(ctx, util.CmdSpec{
		Path:    f.opts.FFmpegPath,
		Args:    BuildArgs(video, out, f.opts.Offset),
		Verbose: f.opts.Verbose,
	})
	if err != nil {
		_ = util.RemoveIfExists(out)
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	// ffmpeg exits 0 without writing a frame when the offset is past the end.
	if !util.NonEmptyFile(out) {
		_ = util.RemoveIfExists(out)
		return fmt.Errorf("no frame at %s", f.opts.Offset)
	}
	log.Debug().Str("file", video).Str("thumb", out).Msg("preview generated")
	return nil
}
