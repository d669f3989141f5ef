// Package story derives the viewer-facing text of a puzzle video: the
// opening hook and a short title. Lines are picked deterministically from the
// puzzle id so re-runs produce identical videos.
package story

import (
	"fmt"
	"hash/fnv"

	"github.com/ivlev/puzzle2video/internal/puzzle"
)

// Difficulty is the viewer-facing difficulty tier of a puzzle rating.
type Difficulty string

const (
	Beginner     Difficulty = "BEGINNER"
	Intermediate Difficulty = "INTERMEDIATE"
	Advanced     Difficulty = "ADVANCED"
	Master       Difficulty = "MASTER"
)

// Grade maps a rating to its difficulty tier.
func Grade(rating int) Difficulty {
	switch {
	case rating < 1200:
		return Beginner
	case rating < 1600:
		return Intermediate
	case rating < 2000:
		return Advanced
	default:
		return Master
	}
}

// Hook returns the opening line shown during the first seconds of the video.
func Hook(p puzzle.Puzzle) string {
	hooks := []string{
		fmt.Sprintf("Can you solve this %s puzzle?", Grade(p.Rating)),
		fmt.Sprintf("Only %d%% find the solution!", 5+pick(p.ID, 21)),
		fmt.Sprintf("Rated %d - can you see it?", p.Rating),
		bestMoveLine(p),
	}
	return hooks[pick(p.ID+"hook", len(hooks))]
}

// Title returns a short title keyed by the puzzle's dominant theme.
func Title(p puzzle.Puzzle) string {
	switch {
	case p.HasTheme("mate"):
		return "Checkmate Hunt"
	case p.HasTheme("sacrifice"):
		return "The Sacrifice"
	case p.HasTheme("fork"):
		return "Fork Trick"
	case p.HasTheme("endgame"):
		return "Endgame Grind"
	default:
		return fmt.Sprintf("%s Puzzle", Grade(p.Rating))
	}
}

func bestMoveLine(p puzzle.Puzzle) string {
	if p.HasTheme("mate") {
		return "Find the winning move!"
	}
	return "What's the best move?"
}

// pick hashes a key into [0, n): stable across runs, unlike math/rand.
func pick(key string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
