package board

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNewSequenceFrameCount(t *testing.T) {
	seq, err := NewSequence(startFEN, []string{"e2e4", "e7e5"})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}

	if seq.MoveCount() != 2 {
		t.Errorf("MoveCount: expected 2, got %d", seq.MoveCount())
	}
	if seq.PositionCount() != 3 {
		t.Errorf("PositionCount: expected 3, got %d", seq.PositionCount())
	}
}

func TestNewSequenceRejectsBadInput(t *testing.T) {
	if _, err := NewSequence("not a fen", nil); err == nil {
		t.Error("expected error for malformed FEN")
	}
	if _, err := NewSequence(startFEN, []string{"e2e5"}); err == nil {
		t.Error("expected error for illegal move")
	}
	if _, err := NewSequence(startFEN, []string{"zz"}); err == nil {
		t.Error("expected error for unparsable move")
	}
}

func TestWriteFramesOrderAndNaming(t *testing.T) {
	seq, err := NewSequence(startFEN, []string{"e2e4", "e7e5"})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}

	r, err := NewRenderer(32)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	dir := t.TempDir()
	paths, err := seq.WriteFrames(dir, r, false)
	if err != nil {
		t.Fatalf("WriteFrames failed: %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(paths))
	}
	for i, p := range paths {
		want := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		if p != want {
			t.Errorf("frame %d: expected %s, got %s", i, want, p)
		}
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("frame %d missing: %v", i, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("frame %d is empty", i)
		}
	}
}

func TestWriteFramesMoveOnly(t *testing.T) {
	seq, err := NewSequence(startFEN, []string{"e2e4", "e7e5"})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}

	r, err := NewRenderer(32)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	paths, err := seq.WriteFrames(t.TempDir(), r, true)
	if err != nil {
		t.Fatalf("WriteFrames failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("move-only mode: expected 2 frames, got %d", len(paths))
	}
}

func TestRenderHighlightsLastMove(t *testing.T) {
	seq, err := NewSequence(startFEN, []string{"e2e4"})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}

	r, err := NewRenderer(32)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	initial, err := seq.Render(0, r)
	if err != nil {
		t.Fatalf("Render(0) failed: %v", err)
	}
	after, err := seq.Render(1, r)
	if err != nil {
		t.Fatalf("Render(1) failed: %v", err)
	}

	// e2 sits on file e (4), rank 2 (1): center of that square should be
	// highlighted only in the post-move frame.
	x := 4*32 + 16
	y := (7-1)*32 + 16
	if initial.RGBAAt(x, y) == after.RGBAAt(x, y) {
		t.Error("expected e2 square to change color after the move")
	}
	if after.RGBAAt(x, y) != highlightSquare {
		t.Errorf("expected highlight color at e2, got %v", after.RGBAAt(x, y))
	}

	if _, err := seq.Render(5, r); err == nil {
		t.Error("expected range error for index 5")
	}
}
