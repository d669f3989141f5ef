package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeConcatList writes an ffmpeg concat-demuxer list with per-frame
// durations. The final frame is repeated without a duration entry, which the
// demuxer requires to honor the last duration.
func writeConcatList(path string, files []string, durations []float64) error {
	if len(files) == 0 {
		return fmt.Errorf("no files for concat list")
	}
	if durations != nil && len(durations) != len(files) {
		return fmt.Errorf("concat list: %d files but %d durations", len(files), len(durations))
	}

	var b strings.Builder
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
		if durations != nil {
			fmt.Fprintf(&b, "duration %.6f\n", durations[i])
		}
	}
	if durations != nil {
		abs, err := filepath.Abs(files[len(files)-1])
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// escapeConcatPath quotes a single quote for the concat demuxer's
// single-quoted file directive: close, escaped quote, reopen.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, `'`, `'\''`)
}

// totalDuration sums per-frame durations.
func totalDuration(durations []float64) float64 {
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	return sum
}

// escapeDrawtext escapes text for an ffmpeg drawtext filter argument.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

// moveIndicator is the per-frame caption used by the enhanced template.
func moveIndicator(frameIndex, frameCount int, moveOnly bool) string {
	switch {
	case frameIndex == frameCount-1:
		return "Solution!"
	case frameIndex == 0 && !moveOnly:
		return "Find the best move!"
	default:
		move := frameIndex
		if moveOnly {
			move = frameIndex + 1
		}
		return fmt.Sprintf("Move %d", move)
	}
}
