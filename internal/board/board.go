// Package board turns a puzzle's FEN and move list into an ordered sequence
// of rendered board images, one per position. Frame order is the contract the
// composer relies on.
package board

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/notnil/chess"
)

// Sequence holds every board position of a puzzle: the initial FEN position
// plus one position per applied move.
type Sequence struct {
	positions []*chess.Position
	moves     []*chess.Move
}

// NewSequence parses the FEN and applies the UCI moves in order. An
// unparsable FEN or an illegal move is a data error for the whole puzzle.
func NewSequence(fen string, uciMoves []string) (*Sequence, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	game := chess.NewGame(fenOpt)

	notation := chess.UCINotation{}
	for i, uci := range uciMoves {
		move, err := notation.Decode(game.Position(), uci)
		if err != nil {
			return nil, fmt.Errorf("decode move %d %q: %w", i+1, uci, err)
		}
		if err := game.Move(move); err != nil {
			return nil, fmt.Errorf("apply move %d %q: %w", i+1, uci, err)
		}
	}

	return &Sequence{
		positions: game.Positions(),
		moves:     game.Moves(),
	}, nil
}

// MoveCount returns the number of applied moves.
func (s *Sequence) MoveCount() int { return len(s.moves) }

// PositionCount returns the number of board states (moves + 1).
func (s *Sequence) PositionCount() int { return len(s.positions) }

// Render draws the position at the given index. Index 0 is the initial
// position; for later indices the move that produced the position is
// highlighted.
func (s *Sequence) Render(index int, r *Renderer) (*image.RGBA, error) {
	if index < 0 || index >= len(s.positions) {
		return nil, fmt.Errorf("position index %d out of range [0,%d)", index, len(s.positions))
	}
	var lastMove *chess.Move
	if index > 0 {
		lastMove = s.moves[index-1]
	}
	return r.Render(s.positions[index].Board(), lastMove), nil
}

// WriteFrames renders the sequence as frame_%03d.png files into dir, in move
// order. With moveOnly set, the initial position is skipped and only the
// positions after each move are written.
func (s *Sequence) WriteFrames(dir string, r *Renderer, moveOnly bool) ([]string, error) {
	start := 0
	if moveOnly {
		start = 1
	}

	var paths []string
	for i := start; i < len(s.positions); i++ {
		img, err := s.Render(i, r)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", len(paths)))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create frame %s: %w", path, err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode frame %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}
