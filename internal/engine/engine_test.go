package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/puzzle2video/internal/compose"
	"github.com/ivlev/puzzle2video/internal/config"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// stubComposer records every job instead of invoking ffmpeg.
type stubComposer struct {
	mu     sync.Mutex
	inputs []compose.Input
	failID string
}

func (s *stubComposer) Compose(_ context.Context, in compose.Input) error {
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()
	if in.Puzzle.ID == s.failID {
		return fmt.Errorf("forced failure")
	}
	// The temp dir must still exist while the composer runs.
	if _, err := os.Stat(in.TempDir); err != nil {
		return fmt.Errorf("temp dir gone during compose: %v", err)
	}
	return nil
}

func (s *stubComposer) calls() []compose.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]compose.Input(nil), s.inputs...)
}

func writePuzzleCSV(t *testing.T, rows []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "puzzles.csv")
	content := "PuzzleId,FEN,Moves,Rating,RatingDeviation,Popularity,NbPlays,Themes,GameUrl,OpeningTags\n" +
		strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func puzzleRow(id, moves string) string {
	return fmt.Sprintf("%s,%s,%s,1600,80,95,1000,middlegame fork,https://lichess.org/abc,", id, startFEN, moves)
}

func testEngineConfig(t *testing.T, csvPath string) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		CSVFilePath:      csvPath,
		TempDirPrefix:    filepath.Join(base, "temp_pngs"),
		OutputDir:        filepath.Join(base, "outputs"),
		ReactionGIFDir:   filepath.Join(base, "gifs"),
		ReactionAudioDir: filepath.Join(base, "audios"),
		VideoFPS:         1,
		NumVideos:        100,
		MaxWorkers:       2,
		Template:         "clean",
		TargetWidth:      256,
		TargetHeight:     256,
	}
}

func assertNoTempDirs(t *testing.T, prefix string) {
	t.Helper()
	matches, err := filepath.Glob(prefix + "_*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp dirs left behind: %v", matches)
	}
}

func TestRunComposesEachPuzzle(t *testing.T) {
	csvPath := writePuzzleCSV(t, []string{
		puzzleRow("id001", "e2e4 e7e5"),
		puzzleRow("id002", "d2d4 d7d5"),
		puzzleRow("id003", "g1f3 g8f6"),
	})
	cfg := testEngineConfig(t, csvPath)

	stub := &stubComposer{}
	e, err := NewWithComposer(cfg, stub)
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 3 || res.Succeeded != 3 || res.Failed != 0 {
		t.Errorf("results = %+v", res)
	}

	calls := stub.calls()
	if len(calls) != 3 {
		t.Fatalf("composer called %d times, want 3", len(calls))
	}
	for _, in := range calls {
		if len(in.Frames) != 3 {
			t.Errorf("puzzle %s: %d frames, want 3 (setup + 2 moves)", in.Puzzle.ID, len(in.Frames))
		}
		if len(in.Durations) != len(in.Frames) {
			t.Errorf("puzzle %s: %d durations for %d frames", in.Puzzle.ID, len(in.Durations), len(in.Frames))
		}
		if len(in.Reactions) != 1 {
			t.Errorf("puzzle %s: %d reactions, want 1 in single mode", in.Puzzle.ID, len(in.Reactions))
		}
		if !strings.HasPrefix(filepath.Base(in.OutputPath), "puzzle_"+in.Puzzle.ID) {
			t.Errorf("puzzle %s: unexpected output path %s", in.Puzzle.ID, in.OutputPath)
		}
	}

	assertNoTempDirs(t, cfg.TempDirPrefix)
}

func TestRunTruncatesToNumVideos(t *testing.T) {
	var rows []string
	for i := 0; i < 10; i++ {
		rows = append(rows, puzzleRow(fmt.Sprintf("id%03d", i), "e2e4 e7e5"))
	}
	cfg := testEngineConfig(t, writePuzzleCSV(t, rows))
	cfg.NumVideos = 4

	stub := &stubComposer{}
	e, err := NewWithComposer(cfg, stub)
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 4 {
		t.Errorf("processed %d puzzles, want 4", res.Total)
	}
	if got := len(stub.calls()); got != 4 {
		t.Errorf("composer called %d times, want 4", got)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	csvPath := writePuzzleCSV(t, []string{
		puzzleRow("idaaa", "e2e4 e7e5"),
		puzzleRow("idbad", "e2e4 e7e5"),
		puzzleRow("idccc", "e2e4 e7e5"),
	})
	cfg := testEngineConfig(t, csvPath)

	stub := &stubComposer{failID: "idbad"}
	e, err := NewWithComposer(cfg, stub)
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("results = %+v, want 2 succeeded / 1 failed", res)
	}

	// Cleanup must run for failed jobs too.
	assertNoTempDirs(t, cfg.TempDirPrefix)
}

func TestRunSkipsUnplayablePuzzle(t *testing.T) {
	csvPath := writePuzzleCSV(t, []string{
		puzzleRow("idok1", "e2e4 e7e5"),
		puzzleRow("idill", "e2e5"), // illegal move
	})
	cfg := testEngineConfig(t, csvPath)

	stub := &stubComposer{}
	e, err := NewWithComposer(cfg, stub)
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("results = %+v, want 1 succeeded / 1 failed", res)
	}
	if got := len(stub.calls()); got != 1 {
		t.Errorf("composer called %d times, want 1", got)
	}
	assertNoTempDirs(t, cfg.TempDirPrefix)
}

func TestRunSweepsOrphanTempDirs(t *testing.T) {
	cfg := testEngineConfig(t, writePuzzleCSV(t, []string{puzzleRow("id001", "e2e4 e7e5")}))

	orphan := cfg.TempDirPrefix + "_stale_deadbeef"
	if err := os.MkdirAll(orphan, 0755); err != nil {
		t.Fatalf("mkdir orphan: %v", err)
	}
	if err := os.WriteFile(filepath.Join(orphan, "frame_000.png"), []byte("x"), 0644); err != nil {
		t.Fatalf("write orphan file: %v", err)
	}

	e, err := NewWithComposer(cfg, &stubComposer{})
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("orphan dir still present: %v", err)
	}
	assertNoTempDirs(t, cfg.TempDirPrefix)
}

func TestMultiReactionDurationsFollowTiming(t *testing.T) {
	cfg := testEngineConfig(t, writePuzzleCSV(t, []string{puzzleRow("id001", "e2e4 e7e5")}))
	cfg.MultiReactions = true

	stub := &stubComposer{}
	e, err := NewWithComposer(cfg, stub)
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	calls := stub.calls()
	if len(calls) != 1 {
		t.Fatalf("composer called %d times, want 1", len(calls))
	}
	in := calls[0]
	if len(in.Reactions) != len(in.Frames) {
		t.Fatalf("%d reactions for %d frames", len(in.Reactions), len(in.Frames))
	}
	for i, d := range in.Durations {
		want := in.Reactions[i].Timing.Duration
		if want <= 0 || d != want {
			t.Errorf("frame %d duration %v, want reaction timing %v", i, d, want)
		}
	}
	// The final frame lingers longest.
	last := in.Durations[len(in.Durations)-1]
	for _, d := range in.Durations[:len(in.Durations)-1] {
		if d >= last {
			t.Errorf("final frame should be the longest: %v vs %v", last, in.Durations)
			break
		}
	}
}

func TestRunFailsOnMissingCSV(t *testing.T) {
	cfg := testEngineConfig(t, filepath.Join(t.TempDir(), "missing.csv"))
	e, err := NewWithComposer(cfg, &stubComposer{})
	if err != nil {
		t.Fatalf("NewWithComposer: %v", err)
	}
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error for missing CSV")
	}
}
