package engine

import (
	"math"
	"math/rand"
)

// minFrameDuration is the floor for a smoothed frame; anything shorter reads
// as a flicker in the final video.
const minFrameDuration = 0.5

// smoothDurations replaces a flat per-frame timeline with an organic one:
// each frame drifts up to 15% from its neighbor, clamped to a floor, then the
// whole set is rescaled so the total length stays the same and every value is
// snapped to the encode frame grid (stable segment boundaries at concat).
func smoothDurations(durations []float64, fps int, rng *rand.Rand) []float64 {
	if len(durations) < 2 {
		return durations
	}

	total := 0.0
	for _, d := range durations {
		total += d
	}
	base := total / float64(len(durations))

	out := make([]float64, len(durations))
	variation := rng.Float64()*0.3 - 0.15 // [-0.15, 0.15]
	out[0] = base * (1 + variation)

	for i := 1; i < len(out); i++ {
		variation := rng.Float64()*0.3 - 0.15
		out[i] = out[i-1] * (1 + variation)
		if out[i] < minFrameDuration {
			out[i] = minFrameDuration
		}
	}

	sum := 0.0
	for _, d := range out {
		sum += d
	}
	scale := total / sum
	for i := range out {
		out[i] *= scale
	}

	return alignToGrid(out, fps)
}

// alignToGrid rounds every duration to a whole number of frames at the given
// fps, never below one frame.
func alignToGrid(durations []float64, fps int) []float64 {
	if fps < 1 {
		return durations
	}
	frame := 1.0 / float64(fps)
	for i, d := range durations {
		d = math.Round(d*float64(fps)) / float64(fps)
		if d < frame {
			d = frame
		}
		durations[i] = d
	}
	return durations
}
