// Package engine orchestrates the batch: it loads the puzzle set, fans jobs
// out to a bounded worker pool and tracks per-job temp dir lifecycle.
package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/puzzle2video/internal/board"
	"github.com/ivlev/puzzle2video/internal/compose"
	"github.com/ivlev/puzzle2video/internal/config"
	"github.com/ivlev/puzzle2video/internal/puzzle"
	"github.com/ivlev/puzzle2video/internal/reaction"
	"github.com/ivlev/puzzle2video/internal/system"
)

// Results summarizes one batch run.
type Results struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Engine drives the puzzle-to-video pipeline.
type Engine struct {
	cfg      *config.Config
	template compose.Template
	selector reaction.Selector
	composer compose.Composer
	library  *reaction.Library
}

// New builds an engine with the ffmpeg-backed composer.
func New(cfg *config.Config) (*Engine, error) {
	composer, err := compose.NewFFmpegComposer(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithComposer(cfg, composer)
}

// NewWithComposer builds an engine around an explicit composer.
func NewWithComposer(cfg *config.Config, composer compose.Composer) (*Engine, error) {
	tpl, err := compose.ParseTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}

	rules := reaction.DefaultRules()
	if cfg.RulesFile != "" {
		if rules, err = reaction.ReadRules(cfg.RulesFile); err != nil {
			return nil, fmt.Errorf("reaction rules: %w", err)
		}
	}
	lib, err := reaction.LoadLibrary(cfg.ReactionGIFDir, cfg.ReactionAudioDir, rules)
	if err != nil {
		return nil, fmt.Errorf("reaction library: %w", err)
	}
	if lib.Empty() {
		log.Printf("[!] No reaction media in %s / %s: videos will show the board only", cfg.ReactionGIFDir, cfg.ReactionAudioDir)
	}

	var sel reaction.Selector
	if cfg.MultiReactions {
		sel = reaction.NewContextSelector(lib)
	} else {
		sel = reaction.NewRuleSelector(lib, time.Now().UnixNano())
	}

	return &Engine{
		cfg:      cfg,
		template: tpl,
		selector: sel,
		composer: composer,
		library:  lib,
	}, nil
}

// Run processes the configured CSV. A failed puzzle is logged and skipped;
// only setup problems (unreadable CSV, unwritable output dir) abort the run.
func (e *Engine) Run(ctx context.Context) (Results, error) {
	start := time.Now()

	puzzles, err := puzzle.Load(e.cfg.CSVFilePath)
	if err != nil {
		return Results{}, err
	}
	if len(puzzles) > e.cfg.NumVideos {
		puzzles = puzzles[:e.cfg.NumVideos]
	}
	if len(puzzles) == 0 {
		return Results{}, fmt.Errorf("no usable puzzles in %s", e.cfg.CSVFilePath)
	}

	e.sweepOrphans()

	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return Results{}, fmt.Errorf("create output dir: %w", err)
	}

	log.Printf("[*] Composing %d videos with %d workers (template: %s)", len(puzzles), e.cfg.MaxWorkers, e.cfg.Template)

	bar := progressbar.Default(int64(len(puzzles)), "composing")
	var succeeded, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxWorkers)
	for _, p := range puzzles {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.processPuzzle(ctx, p); err != nil {
				log.Printf("[!] Puzzle %s failed: %v", p.ID, err)
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	res := Results{
		Total:     len(puzzles),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Elapsed:   time.Since(start),
	}
	if e.cfg.ShowStats {
		e.reportStats(res)
	}
	return res, nil
}

// processPuzzle runs one job: temp dir, frames, reactions, composition. The
// temp dir is removed whether the job succeeds or fails.
func (e *Engine) processPuzzle(ctx context.Context, p puzzle.Puzzle) error {
	tempDir := fmt.Sprintf("%s_%s_%s", e.cfg.TempDirPrefix, p.ID, uuid.NewString()[:8])
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	seq, err := board.NewSequence(p.FEN, p.Moves)
	if err != nil {
		return err
	}

	squarePx := e.cfg.TargetWidth / 8
	renderer, err := board.NewRenderer(squarePx)
	if err != nil {
		return err
	}
	frames, err := seq.WriteFrames(tempDir, renderer, e.template.MoveOnlyFrames())
	if err != nil {
		return err
	}

	reactions := e.selectReactions(p, len(frames))
	durations := e.frameDurations(reactions, len(frames))

	in := compose.Input{
		Puzzle:     p,
		Frames:     frames,
		Durations:  durations,
		Reactions:  reactions,
		TempDir:    tempDir,
		OutputPath: filepath.Join(e.cfg.OutputDir, fmt.Sprintf("puzzle_%s.mp4", p.ID)),
	}
	return e.composer.Compose(ctx, in)
}

// selectReactions returns one choice per frame in multi-reaction mode, or a
// single choice (scored on the final position) for the whole video.
func (e *Engine) selectReactions(p puzzle.Puzzle, frameCount int) []reaction.Choice {
	if e.cfg.MultiReactions {
		choices := make([]reaction.Choice, frameCount)
		for i := range choices {
			choices[i] = e.selector.Select(p, i, frameCount)
		}
		return choices
	}
	return []reaction.Choice{e.selector.Select(p, frameCount-1, frameCount)}
}

// frameDurations derives the per-frame timeline: reaction timing hints when
// present, otherwise the template's base pacing, optionally smoothed.
func (e *Engine) frameDurations(reactions []reaction.Choice, frameCount int) []float64 {
	if len(reactions) == frameCount {
		timed := make([]float64, 0, frameCount)
		for _, c := range reactions {
			if c.Timing.Duration <= 0 {
				timed = nil
				break
			}
			timed = append(timed, c.Timing.Duration)
		}
		if len(timed) == frameCount {
			return timed
		}
	}

	base := e.template.BaseFrameDuration(e.cfg.VideoFPS)
	durations := make([]float64, frameCount)
	for i := range durations {
		durations[i] = base
	}
	if e.template.Smoothing() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		durations = smoothDurations(durations, compose.OutputFPS, rng)
	}
	return durations
}

// sweepOrphans removes temp dirs left behind by an interrupted run. Runs
// before the pool starts, so a live dir can never match.
func (e *Engine) sweepOrphans() {
	matches, err := filepath.Glob(e.cfg.TempDirPrefix + "_*")
	if err != nil {
		return
	}
	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := os.RemoveAll(m); err != nil {
			log.Printf("[!] Could not remove orphan dir %s: %v", m, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("[*] Removed %d orphan temp dirs from a previous run", removed)
	}
}

func (e *Engine) reportStats(res Results) {
	log.Printf("[*] Batch statistics:")
	log.Printf("[*]   puzzles:     %d", res.Total)
	log.Printf("[*]   succeeded:   %d", res.Succeeded)
	log.Printf("[*]   failed:      %d", res.Failed)
	log.Printf("[*]   gif files:   %d", e.library.GIFCount())
	log.Printf("[*]   audio files: %d", e.library.AudioCount())
	log.Printf("[*]   elapsed:     %s", res.Elapsed.Round(time.Millisecond))

	outputs, err := filepath.Glob(filepath.Join(e.cfg.OutputDir, "puzzle_*.mp4"))
	if err != nil || len(outputs) == 0 {
		return
	}
	footage := 0.0
	for _, out := range outputs {
		d, err := system.ProbeDuration(out)
		if err != nil {
			continue
		}
		footage += d
	}
	log.Printf("[*]   footage:     %.1fs across %d files", footage, len(outputs))
}
