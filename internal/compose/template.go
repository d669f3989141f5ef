package compose

import (
	"fmt"

	"github.com/ivlev/puzzle2video/internal/story"
)

// Template selects the pacing and overlay style of a video.
type Template string

const (
	// TemplateEngaging is the default: organic pacing, and with visual
	// enhancements enabled the full overlay set (gradient background, hook
	// text, difficulty badge, progress bar, game-URL QR).
	TemplateEngaging Template = "engaging"
	// TemplateClean shows every position at the configured VIDEO_FPS with no
	// overlays.
	TemplateClean Template = "clean"
	// TemplateSpeed skips the initial position and runs move-only frames at
	// a fixed fast pace.
	TemplateSpeed Template = "speed"
)

// ParseTemplate validates a template name from configuration.
func ParseTemplate(name string) (Template, error) {
	switch Template(name) {
	case TemplateEngaging, TemplateClean, TemplateSpeed:
		return Template(name), nil
	default:
		return "", fmt.Errorf("unknown video template %q (want engaging, clean or speed)", name)
	}
}

// MoveOnlyFrames reports whether the initial position is skipped.
func (t Template) MoveOnlyFrames() bool { return t == TemplateSpeed }

// BaseFrameDuration returns the seconds one frame stays on screen before any
// smoothing. Zero means pacing is driven by per-move reaction timing.
func (t Template) BaseFrameDuration(videoFPS int) float64 {
	switch t {
	case TemplateClean:
		return 1.0 / float64(videoFPS)
	case TemplateSpeed:
		return 0.6
	default:
		return 1.5
	}
}

// Smoothing reports whether per-frame durations get the randomized ±15%
// variation pass.
func (t Template) Smoothing() bool { return t == TemplateEngaging }

// Overlays reports whether the template renders visual overlays when the
// enhancement toggle is on.
func (t Template) Overlays(visualEnhance bool) bool {
	return t == TemplateEngaging && visualEnhance
}

// badgeColor returns the drawtext color of the difficulty badge.
func badgeColor(rating int) string {
	switch story.Grade(rating) {
	case story.Beginner:
		return "lightgreen"
	case story.Intermediate:
		return "gold"
	case story.Advanced:
		return "orange"
	default:
		return "salmon"
	}
}

// backgroundColor returns the gradient base color keyed by difficulty.
func backgroundColor(rating int) string {
	switch story.Grade(rating) {
	case story.Beginner:
		return "0x143C14"
	case story.Intermediate:
		return "0x3C3C14"
	case story.Advanced:
		return "0x502814"
	default:
		return "0x501414"
	}
}
