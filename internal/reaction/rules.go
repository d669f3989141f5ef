// Package reaction picks reaction media (gif + audio clip) for puzzle videos.
// Two selectors implement one contract: a rule-based random pick per video and
// a context-aware scorer that matches puzzle themes per move.
package reaction

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules describes how media files are grouped into emotion categories and how
// puzzle themes map onto those categories. A rules file is optional; the
// embedded defaults mirror the stock asset naming.
type Rules struct {
	Version         string              `yaml:"version"`
	GIFCategories   map[string][]string `yaml:"gif_categories"`
	AudioCategories map[string][]string `yaml:"audio_categories"`
	ThemeRules      []ThemeRule         `yaml:"theme_rules"`
	QualityMarkers  []string            `yaml:"quality_markers"`
}

// ThemeRule maps puzzle theme substrings to a gif and an audio category.
// Rules are evaluated in order; the first match wins.
type ThemeRule struct {
	Themes []string `yaml:"themes"`
	GIF    string   `yaml:"gif"`
	Audio  string   `yaml:"audio"`
}

// DefaultRules returns the embedded ruleset for the stock reaction assets
// (streamer reaction gifs named by emotion, meme sound clips).
func DefaultRules() Rules {
	return Rules{
		Version: "1.0",
		GIFCategories: map[string][]string{
			"excitement":  {"excited", "excitement"},
			"shock":       {"shocked"},
			"calculation": {"calculating", "calculation"},
			"anger":       {"pissed", "angry"},
			"celebration": {"excited", "excitement"},
			"suspense":    {"calculating", "calculation"},
		},
		AudioCategories: map[string][]string{
			"excitement":  {"anime-wow", "baby-laughing"},
			"high_energy": {"anime-wow", "baby-laughing"},
			"celebration": {"anime-wow", "baby-laughing"},
			"shock":       {"get-out", "why-are"},
			"dramatic":    {"get-out", "why-are"},
			"suspense":    {"vine-boom"},
			"meme":        {"vine-boom"},
		},
		ThemeRules: []ThemeRule{
			{Themes: []string{"mate", "crushing"}, GIF: "celebration", Audio: "celebration"},
			{Themes: []string{"hangingPiece", "fork", "pin"}, GIF: "shock", Audio: "dramatic"},
			{Themes: []string{"sacrifice", "deflection"}, GIF: "shock", Audio: "dramatic"},
			{Themes: []string{"endgame"}, GIF: "excitement", Audio: "high_energy"},
			{Themes: []string{"quiet"}, GIF: "calculation", Audio: "suspense"},
		},
		QualityMarkers: []string{"magnus", "hikaru"},
	}
}

// ReadRules loads a ruleset from a YAML file.
func ReadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rules.GIFCategories) == 0 && len(rules.AudioCategories) == 0 {
		return Rules{}, fmt.Errorf("rules file %s defines no categories", path)
	}
	return rules, nil
}

// WriteRules writes a ruleset to a YAML file, so the defaults can be exported
// and edited.
func WriteRules(rules Rules, path string) error {
	data, err := yaml.Marshal(rules)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
