package puzzle

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Lichess puzzle export column order.
const (
	colPuzzleID = iota
	colFEN
	colMoves
	colRating
	colRatingDeviation
	colPopularity
	colNbPlays
	colThemes
	colGameURL
	colOpeningTags
	columnCount
)

// Puzzle is one pre-solved chess puzzle. Immutable once loaded.
type Puzzle struct {
	ID         string
	FEN        string
	Moves      []string
	Rating     int
	Themes     []string
	Popularity int
	GameURL    string
}

// HasTheme reports whether any theme tag contains the given substring,
// case-insensitively. Lichess tags are camel-cased single words
// (e.g. "hangingPiece", "mateIn2").
func (p Puzzle) HasTheme(sub string) bool {
	sub = strings.ToLower(sub)
	for _, theme := range p.Themes {
		if strings.Contains(strings.ToLower(theme), sub) {
			return true
		}
	}
	return false
}

// Load reads puzzles from a Lichess-style CSV export. The first line is a
// header. Rows that cannot be parsed are skipped with a log line; no partial
// record is retained for them.
func Load(path string) ([]Puzzle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open puzzle CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	// Header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("puzzle CSV %s is empty", path)
		}
		return nil, fmt.Errorf("read puzzle CSV header: %w", err)
	}

	var puzzles []Puzzle
	line := 1
	for {
		line++
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[!] Skipping CSV line %d: %v", line, err)
			continue
		}

		p, err := parseRow(record)
		if err != nil {
			log.Printf("[!] Skipping CSV line %d: %v", line, err)
			continue
		}
		puzzles = append(puzzles, p)
	}

	return puzzles, nil
}

func parseRow(record []string) (Puzzle, error) {
	if len(record) < colRating+1 {
		return Puzzle{}, fmt.Errorf("expected at least %d columns, got %d", colRating+1, len(record))
	}

	id := strings.TrimSpace(record[colPuzzleID])
	fen := strings.TrimSpace(record[colFEN])
	movesField := strings.TrimSpace(record[colMoves])
	if id == "" || fen == "" || movesField == "" {
		return Puzzle{}, fmt.Errorf("missing id, FEN or moves")
	}

	moves := strings.Fields(movesField)
	for _, m := range moves {
		if len(m) < 4 || len(m) > 5 {
			return Puzzle{}, fmt.Errorf("malformed UCI move %q", m)
		}
	}

	p := Puzzle{
		ID:         id,
		FEN:        fen,
		Moves:      moves,
		Rating:     1500,
		Popularity: 50,
	}

	if v, err := strconv.Atoi(strings.TrimSpace(record[colRating])); err == nil {
		p.Rating = v
	}
	if len(record) > colPopularity {
		if v, err := strconv.Atoi(strings.TrimSpace(record[colPopularity])); err == nil {
			p.Popularity = v
		}
	}
	if len(record) > colThemes {
		p.Themes = strings.Fields(record[colThemes])
	}
	if len(record) > colGameURL {
		p.GameURL = strings.TrimSpace(record[colGameURL])
	}

	return p, nil
}
