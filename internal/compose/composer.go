// Package compose assembles rendered board frames, reaction media and audio
// into one short video per puzzle, through ffmpeg.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/ivlev/puzzle2video/internal/config"
	"github.com/ivlev/puzzle2video/internal/puzzle"
	"github.com/ivlev/puzzle2video/internal/reaction"
	"github.com/ivlev/puzzle2video/internal/story"
)

// OutputFPS is the encode frame rate of every produced video; frame
// durations are aligned to this grid.
const OutputFPS = 30

// Input is one composition job: the ordered frames of a puzzle with their
// durations and the selected reactions (one for the whole video, or one per
// frame in multi-reaction mode).
type Input struct {
	Puzzle     puzzle.Puzzle
	Frames     []string
	Durations  []float64
	Reactions  []reaction.Choice
	TempDir    string
	OutputPath string
}

// Composer produces the final video for a job. The orchestrator only depends
// on this contract, so tests can substitute the ffmpeg-backed implementation.
type Composer interface {
	Compose(ctx context.Context, in Input) error
}

// FFmpegComposer is the production Composer.
type FFmpegComposer struct {
	cfg      *config.Config
	template Template
}

// NewFFmpegComposer validates the configured template and builds the composer.
func NewFFmpegComposer(cfg *config.Config) (*FFmpegComposer, error) {
	tpl, err := ParseTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	return &FFmpegComposer{cfg: cfg, template: tpl}, nil
}

// Compose builds the output video. Multi-reaction inputs are encoded as one
// segment per frame and concatenated; single-reaction inputs use one concat
// timeline with a looping gif overlay.
func (c *FFmpegComposer) Compose(ctx context.Context, in Input) error {
	if len(in.Frames) == 0 {
		return fmt.Errorf("puzzle %s: no frames to compose", in.Puzzle.ID)
	}
	if len(in.Durations) != len(in.Frames) {
		return fmt.Errorf("puzzle %s: %d frames but %d durations", in.Puzzle.ID, len(in.Frames), len(in.Durations))
	}
	if len(in.Reactions) != 1 && len(in.Reactions) != len(in.Frames) {
		return fmt.Errorf("puzzle %s: %d reactions for %d frames", in.Puzzle.ID, len(in.Reactions), len(in.Frames))
	}
	for _, choice := range in.Reactions {
		if err := checkAssets(choice); err != nil {
			return fmt.Errorf("puzzle %s: %w", in.Puzzle.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fontPath, err := writeOverlayFont(in.TempDir)
	if err != nil {
		return fmt.Errorf("puzzle %s: %w", in.Puzzle.ID, err)
	}

	total := totalDuration(in.Durations)
	if len(in.Reactions) == len(in.Frames) && len(in.Frames) > 1 {
		return c.composeMulti(ctx, in, total, fontPath)
	}
	return c.composeSingle(in, total, fontPath)
}

// composeSingle renders the whole timeline in one ffmpeg run: board frames
// from a concat list, one looping reaction gif stacked above the board, one
// looping audio clip underneath.
func (c *FFmpegComposer) composeSingle(in Input, total float64, fontPath string) error {
	listPath := filepath.Join(in.TempDir, "frames.txt")
	if err := writeConcatList(listPath, in.Frames, in.Durations); err != nil {
		return fmt.Errorf("puzzle %s: %w", in.Puzzle.ID, err)
	}

	choice := in.Reactions[0]
	video, err := c.buildCanvas(in, choice, canvasSpec{dur: total, total: total, fontPath: fontPath, withHook: true})
	if err != nil {
		return fmt.Errorf("puzzle %s: %w", in.Puzzle.ID, err)
	}

	streams := []*ffmpeg.Stream{video}
	outKw := ffmpeg.KwArgs{
		"c:v":     c.encoder(),
		"pix_fmt": "yuv420p",
		"r":       OutputFPS,
		"t":       fmt.Sprintf("%.6f", total),
	}
	mergeKw(outKw, qualityArgs(c.encoder(), c.quality()))

	if choice.Audio != "" {
		audio := ffmpeg.Input(choice.Audio, ffmpeg.KwArgs{"stream_loop": -1}).
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.6f", total)}).
			Filter("loudnorm", ffmpeg.Args{}, ffmpeg.KwArgs{"I": "-16", "TP": "-1.5", "LRA": "11"})
		streams = append(streams, audio)
		mergeKw(outKw, ffmpeg.KwArgs{"c:a": "aac", "b:a": "192k"})
	}

	if err := ffmpeg.Output(streams, in.OutputPath, outKw).OverWriteOutput().Run(); err != nil {
		return fmt.Errorf("puzzle %s: ffmpeg compose: %w", in.Puzzle.ID, err)
	}
	return nil
}

// composeMulti encodes one segment per frame, each with its own reaction, and
// concatenates them with the stitched audio track. Mirrors the segment pool
// plus concat approach of the single-timeline path but with per-move media.
func (c *FFmpegComposer) composeMulti(ctx context.Context, in Input, total float64, fontPath string) error {
	segments := make([]string, len(in.Frames))
	offset := 0.0
	for i := range in.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		segPath := filepath.Join(in.TempDir, fmt.Sprintf("seg_%03d.mp4", i))
		if err := c.encodeSegment(in, i, total, offset, fontPath, segPath); err != nil {
			return fmt.Errorf("puzzle %s: segment %d: %w", in.Puzzle.ID, i, err)
		}
		segments[i] = segPath
		offset += in.Durations[i]
	}

	segList := filepath.Join(in.TempDir, "segments.txt")
	if err := writeConcatList(segList, segments, nil); err != nil {
		return fmt.Errorf("puzzle %s: %w", in.Puzzle.ID, err)
	}
	video := ffmpeg.Input(segList, ffmpeg.KwArgs{"f": "concat", "safe": "0"})

	streams := []*ffmpeg.Stream{video}
	outKw := ffmpeg.KwArgs{"c:v": "copy", "t": fmt.Sprintf("%.6f", total)}
	if audio := c.buildAudioTrack(in, total); audio != nil {
		streams = append(streams, audio)
		mergeKw(outKw, ffmpeg.KwArgs{"c:a": "aac", "b:a": "192k"})
	}

	if err := ffmpeg.Output(streams, in.OutputPath, outKw).OverWriteOutput().Run(); err != nil {
		return fmt.Errorf("puzzle %s: ffmpeg concat: %w", in.Puzzle.ID, err)
	}
	return nil
}

// encodeSegment renders one frame with its reaction into a standalone clip.
func (c *FFmpegComposer) encodeSegment(in Input, index int, total, offset float64, fontPath, segPath string) error {
	dur := in.Durations[index]

	seg := Input{
		Puzzle:     in.Puzzle,
		Frames:     in.Frames[index : index+1],
		Durations:  in.Durations[index : index+1],
		Reactions:  in.Reactions[index : index+1],
		TempDir:    in.TempDir,
		OutputPath: segPath,
	}
	video, err := c.buildCanvas(seg, in.Reactions[index], canvasSpec{
		dur:      dur,
		offset:   offset,
		total:    total,
		fontPath: fontPath,
		caption:  c.segmentCaption(index, len(in.Frames)),
		// The hook belongs to the opening of the whole video, not each segment.
		withHook: index == 0,
	})
	if err != nil {
		return err
	}

	outKw := ffmpeg.KwArgs{
		"c:v":     c.encoder(),
		"pix_fmt": "yuv420p",
		"r":       OutputFPS,
		"t":       fmt.Sprintf("%.6f", dur),
	}
	mergeKw(outKw, qualityArgs(c.encoder(), c.quality()))

	if err := ffmpeg.Output([]*ffmpeg.Stream{video}, segPath, outKw).OverWriteOutput().Run(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	return nil
}

// segmentCaption returns the per-frame indicator line, or "" for templates
// that promise a bare board (no-overlay templates draw no text at all).
func (c *FFmpegComposer) segmentCaption(index, frameCount int) string {
	if !c.template.Overlays(c.cfg.VisualEnhance) {
		return ""
	}
	return moveIndicator(index, frameCount, c.template.MoveOnlyFrames())
}

// canvasSpec carries per-canvas timing and overlay parameters. offset is the
// absolute start of this canvas within the whole video; total is the whole
// video's length (the progress bar fills against it).
type canvasSpec struct {
	dur      float64
	offset   float64
	total    float64
	fontPath string
	caption  string
	withHook bool
}

// buildCanvas assembles the video-only composite for a run of frames: board
// scaled to the target width at the bottom, reaction gif fitted into the
// remaining area above, then the template overlays.
func (c *FFmpegComposer) buildCanvas(in Input, choice reaction.Choice, spec canvasSpec) (*ffmpeg.Stream, error) {
	w, h := c.cfg.TargetWidth, c.cfg.TargetHeight
	gifArea := h - w // board frames are square, scaled to the full width

	var board *ffmpeg.Stream
	if len(in.Frames) == 1 {
		board = ffmpeg.Input(in.Frames[0], ffmpeg.KwArgs{"loop": 1, "framerate": OutputFPS})
	} else {
		listPath := filepath.Join(in.TempDir, "frames.txt")
		board = ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"})
	}
	board = board.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:-2", w)}).
		Filter("setsar", ffmpeg.Args{"1"})

	if gifArea <= 0 || choice.GIF == "" {
		// Not enough height for a reaction row (or nothing to show):
		// board-only output, as in the legacy tool.
		if spec.caption != "" {
			board = drawCaption(board, spec.fontPath, spec.caption)
		}
		return board, nil
	}

	bgColor := "black"
	overlays := c.template.Overlays(c.cfg.VisualEnhance)
	if overlays {
		bgColor = backgroundColor(in.Puzzle.Rating)
	}

	video := colorInput(bgColor, w, h, spec.dur).
		Overlay(board, "", ffmpeg.KwArgs{"x": "(main_w-w)/2", "y": fmt.Sprintf("%d", gifArea)})

	gif := ffmpeg.Input(choice.GIF, ffmpeg.KwArgs{"stream_loop": -1}).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", w, gifArea)})
	video = video.Overlay(gif, "", ffmpeg.KwArgs{
		"x": "(main_w-w)/2",
		"y": fmt.Sprintf("(%d-h)/2", gifArea),
	})

	if spec.caption != "" {
		video = drawCaption(video, spec.fontPath, spec.caption)
	}
	if !overlays {
		return video, nil
	}

	video = drawBadge(video, spec.fontPath, in.Puzzle)
	video = c.overlayProgressBar(video, spec)
	if spec.withHook {
		video = drawHook(video, spec.fontPath, in.Puzzle)
	}
	if in.Puzzle.GameURL != "" {
		qr, err := qrBadge(in)
		if err != nil {
			return nil, err
		}
		video = video.Overlay(qr, "", ffmpeg.KwArgs{"x": "main_w-w-24", "y": "main_h-h-24"})
	}

	return video, nil
}

func drawHook(video *ffmpeg.Stream, fontPath string, p puzzle.Puzzle) *ffmpeg.Stream {
	return video.Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs{
		"fontfile":    fontPath,
		"text":        escapeDrawtext(story.Hook(p)),
		"fontsize":    48,
		"fontcolor":   "white",
		"borderw":     2,
		"bordercolor": "black",
		"x":           "(w-text_w)/2",
		"y":           120,
		"enable":      "lte(t,2.5)",
	})
}

func drawBadge(video *ffmpeg.Stream, fontPath string, p puzzle.Puzzle) *ffmpeg.Stream {
	badge := fmt.Sprintf("%s - %d", story.Grade(p.Rating), p.Rating)
	return video.Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs{
		"fontfile":    fontPath,
		"text":        escapeDrawtext(badge),
		"fontsize":    28,
		"fontcolor":   badgeColor(p.Rating),
		"borderw":     1,
		"bordercolor": "black",
		"x":           24,
		"y":           24,
	})
}

func drawCaption(video *ffmpeg.Stream, fontPath, caption string) *ffmpeg.Stream {
	return video.Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs{
		"fontfile":    fontPath,
		"text":        escapeDrawtext(caption),
		"fontsize":    36,
		"fontcolor":   "white",
		"borderw":     1,
		"bordercolor": "black",
		"x":           "(w-text_w)/2",
		"y":           "h-text_h-40",
	})
}

// overlayProgressBar slides a thin bar across the top edge, filling over the
// whole video.
func (c *FFmpegComposer) overlayProgressBar(video *ffmpeg.Stream, spec canvasSpec) *ffmpeg.Stream {
	bar := colorInput("white@0.85", c.cfg.TargetWidth, 10, spec.dur)
	return video.Overlay(bar, "", ffmpeg.KwArgs{
		"x": fmt.Sprintf("-main_w+main_w*(t+%.6f)/%.6f", spec.offset, spec.total),
		"y": 0,
	})
}

// qrBadge writes the QR image for the puzzle's game URL into the temp dir
// and returns it as an input stream.
func qrBadge(in Input) (*ffmpeg.Stream, error) {
	qrPath := filepath.Join(in.TempDir, "game_qr.png")
	if _, err := os.Stat(qrPath); err != nil {
		if err := qrcode.WriteFile(in.Puzzle.GameURL, qrcode.Medium, 160, qrPath); err != nil {
			return nil, fmt.Errorf("write QR badge: %w", err)
		}
	}
	return ffmpeg.Input(qrPath, ffmpeg.KwArgs{"loop": 1, "framerate": OutputFPS}), nil
}

// buildAudioTrack stitches per-segment audio with short crossfades, padded
// and trimmed to the exact video length, then loudness-normalized. Returns
// nil when no segment selected any audio.
func (c *FFmpegComposer) buildAudioTrack(in Input, total float64) *ffmpeg.Stream {
	anyAudio := false
	for _, choice := range in.Reactions {
		if choice.Audio != "" {
			anyAudio = true
			break
		}
	}
	if !anyAudio {
		return nil
	}

	var parts []*ffmpeg.Stream
	for i, choice := range in.Reactions {
		dur := in.Durations[i]
		if choice.Audio == "" {
			parts = append(parts, silence(dur))
			continue
		}
		parts = append(parts, ffmpeg.Input(choice.Audio, ffmpeg.KwArgs{"stream_loop": -1}).
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.6f", dur)}))
	}

	mixed := parts[0]
	for _, next := range parts[1:] {
		mixed = ffmpeg.Filter([]*ffmpeg.Stream{mixed, next}, "acrossfade", ffmpeg.Args{}, ffmpeg.KwArgs{"d": "0.15"})
	}

	return mixed.
		Filter("apad", ffmpeg.Args{}).
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.6f", total)}).
		Filter("loudnorm", ffmpeg.Args{}, ffmpeg.KwArgs{"I": "-16", "TP": "-1.5", "LRA": "11"})
}

// writeOverlayFont materializes the embedded overlay font in the job's
// temp dir so drawtext can reference it by path.
func writeOverlayFont(tempDir string) (string, error) {
	fontPath := filepath.Join(tempDir, "overlay.ttf")
	if _, err := os.Stat(fontPath); err == nil {
		return fontPath, nil
	}
	if err := os.WriteFile(fontPath, gobold.TTF, 0644); err != nil {
		return "", fmt.Errorf("write overlay font: %w", err)
	}
	return fontPath, nil
}

func (c *FFmpegComposer) encoder() string {
	if c.cfg.VideoEncoder != "" {
		return c.cfg.VideoEncoder
	}
	return "libx264"
}

func (c *FFmpegComposer) quality() int {
	if c.cfg.Quality > 0 {
		return c.cfg.Quality
	}
	return 23
}

// checkAssets verifies that every non-empty media path exists. Empty paths
// mean the library had nothing and are not an error.
func checkAssets(choice reaction.Choice) error {
	for _, path := range []string{choice.GIF, choice.Audio} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("reaction asset missing: %s", path)
		}
	}
	return nil
}

func colorInput(color string, w, h int, dur float64) *ffmpeg.Stream {
	src := fmt.Sprintf("color=c=%s:s=%dx%d:d=%.6f", color, w, h, dur)
	return ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"})
}

func silence(dur float64) *ffmpeg.Stream {
	return ffmpeg.Input("anullsrc=channel_layout=stereo:sample_rate=44100",
		ffmpeg.KwArgs{"f": "lavfi", "t": fmt.Sprintf("%.6f", dur)})
}

// qualityArgs returns the encoder-specific quality flags, matching the knob
// semantics of each encoder family.
func qualityArgs(encoder string, quality int) ffmpeg.KwArgs {
	switch encoder {
	case "h264_videotoolbox":
		return ffmpeg.KwArgs{"b:v": fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return ffmpeg.KwArgs{"cq": quality}
	default:
		return ffmpeg.KwArgs{"crf": quality, "preset": "medium"}
	}
}

func mergeKw(dst, src ffmpeg.KwArgs) {
	for k, v := range src {
		dst[k] = v
	}
}
