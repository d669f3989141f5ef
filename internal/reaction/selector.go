package reaction

import (
	"math/rand"
	"sync"

	"github.com/ivlev/puzzle2video/internal/puzzle"
)

// Timing is the per-reaction pacing hint consumed by the composer. A zero
// Duration means the caller decides (fixed-fps timeline).
type Timing struct {
	Duration float64
	Energy   string // "low", "medium", "high"
	Priority int
}

// Choice is one selected reaction. Empty GIF/Audio paths mean the library
// had nothing to offer; the composer renders without that track.
type Choice struct {
	GIF    string
	Audio  string
	Timing Timing
}

// Selector chooses reaction media for a move of a puzzle. moveIndex addresses
// the frame being scored; moveCount is the puzzle's total move count.
type Selector interface {
	Select(p puzzle.Puzzle, moveIndex, moveCount int) Choice
}

// RuleSelector is the simple selector: a random pick from a category chosen
// only by the move's position in the puzzle. Used once per video in legacy
// single-reaction mode. One instance is shared by all workers, and
// math/rand.Rand is not goroutine-safe, so the rng is guarded.
type RuleSelector struct {
	lib *Library

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRuleSelector builds a rule-based selector around the given library.
func NewRuleSelector(lib *Library, seed int64) *RuleSelector {
	return &RuleSelector{
		lib: lib,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Select maps the move position to an emotion: setup moves are calculating,
// the final move celebrates, everything between is shock value.
func (s *RuleSelector) Select(p puzzle.Puzzle, moveIndex, moveCount int) Choice {
	var gifCategory, audioCategory string
	switch {
	case moveIndex >= moveCount-1:
		gifCategory, audioCategory = "excitement", "excitement"
	case moveIndex == 0:
		gifCategory, audioCategory = "calculation", "meme"
	default:
		gifCategory, audioCategory = "shock", "shock"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Choice{
		GIF:   s.lib.PickGIF(gifCategory, s.rng),
		Audio: s.lib.PickAudio(audioCategory, s.rng),
	}
}
