package reaction

import "github.com/ivlev/puzzle2video/internal/puzzle"

const baseReactionDuration = 1.8

// ContextSelector scores candidate reactions against the puzzle's theme tags
// and the library's quality ranking. It is fully deterministic: theme rules
// are evaluated in order, categories return their top-ranked file, and
// listing order breaks ties.
type ContextSelector struct {
	lib *Library
}

// NewContextSelector builds a context-aware selector around the given library.
func NewContextSelector(lib *Library) *ContextSelector {
	return &ContextSelector{lib: lib}
}

// Select matches puzzle themes against the theme rules, falling back to
// position-based categories when no rule fires.
func (s *ContextSelector) Select(p puzzle.Puzzle, moveIndex, moveCount int) Choice {
	timing := calculateTiming(p, moveIndex, moveCount)
	gifCategory, audioCategory := s.categorize(p, moveIndex, moveCount)

	return Choice{
		GIF:    s.lib.BestGIF(gifCategory),
		Audio:  s.selectAudioByEnergy(audioCategory, timing.Energy),
		Timing: timing,
	}
}

func (s *ContextSelector) categorize(p puzzle.Puzzle, moveIndex, moveCount int) (string, string) {
	for _, rule := range s.lib.rules.ThemeRules {
		for _, theme := range rule.Themes {
			if p.HasTheme(theme) {
				return rule.GIF, rule.Audio
			}
		}
	}

	switch {
	case moveIndex >= moveCount-1:
		return "excitement", "high_energy"
	case moveIndex == 0:
		return "calculation", "suspense"
	default:
		return "suspense", "meme"
	}
}

// selectAudioByEnergy steers the audio pick towards the timing's energy
// level when the library has a matching category.
func (s *ContextSelector) selectAudioByEnergy(category, energy string) string {
	switch energy {
	case "high":
		if len(s.lib.audio["high_energy"]) > 0 {
			return s.lib.BestAudio("high_energy")
		}
	case "low":
		if len(s.lib.audio["suspense"]) > 0 {
			return s.lib.BestAudio("suspense")
		}
	}
	return s.lib.BestAudio(category)
}

// calculateTiming derives how long a move stays on screen from its position
// in the solution and the puzzle difficulty. The final move gets the longest
// dwell, hard puzzles breathe slower throughout.
func calculateTiming(p puzzle.Puzzle, moveIndex, moveCount int) Timing {
	switch {
	case moveIndex >= moveCount-1:
		return Timing{Duration: baseReactionDuration * 2.5, Energy: "high", Priority: 10}
	case moveIndex == 0:
		return Timing{Duration: baseReactionDuration * 1.8, Energy: "medium", Priority: 7}
	case p.Rating > 2000:
		return Timing{Duration: baseReactionDuration * 2.0, Energy: "high", Priority: 8}
	case p.Rating > 1600:
		return Timing{Duration: baseReactionDuration * 1.5, Energy: "medium", Priority: 6}
	default:
		return Timing{Duration: baseReactionDuration * 1.2, Energy: "low", Priority: 5}
	}
}
