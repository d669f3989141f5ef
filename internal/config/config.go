package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ivlev/puzzle2video/internal/system"
)

// Config holds all process-wide settings. It is resolved once at startup
// and never mutated afterwards; every worker gets the same value.
type Config struct {
	CSVFilePath      string
	TempDirPrefix    string
	OutputDir        string
	VideoFPS         int
	ReactionGIFDir   string
	ReactionAudioDir string
	RulesFile        string
	NumVideos        int
	MaxWorkers       int
	Template         string
	MultiReactions   bool
	VisualEnhance    bool
	TargetWidth      int
	TargetHeight     int
	VideoEncoder     string
	Quality          int
	ShowStats        bool
}

// FromEnv builds a Config from environment variables. CSV_FILE_PATH is the
// only required variable; everything else falls back to documented defaults.
func FromEnv() (*Config, error) {
	csvPath := os.Getenv("CSV_FILE_PATH")
	if csvPath == "" {
		return nil, fmt.Errorf("CSV_FILE_PATH environment variable is required")
	}

	cfg := &Config{
		CSVFilePath: csvPath,
		// Both the short and the long variable names are honored; the
		// long form wins when both are set.
		TempDirPrefix:    getEnv("TEMP_PNG_DIR_NAME", getEnv("TEMP_DIR", "temp_media/temp_pngs")),
		OutputDir:        getEnv("OUTPUT_DIR_NAME", getEnv("OUTPUT_DIR", "temp_media/outputs")),
		ReactionGIFDir:   getEnv("REACTION_GIF_DIR", "reaction_gifs"),
		ReactionAudioDir: getEnv("REACTION_AUDIO_DIR", "reaction_audios"),
		RulesFile:        os.Getenv("REACTION_RULES_FILE"),
		Template:         getEnv("VIDEO_TEMPLATE", "engaging"),
		VideoEncoder:     os.Getenv("VIDEO_ENCODER"),
	}

	var err error
	if cfg.VideoFPS, err = getEnvInt("VIDEO_FPS", 1); err != nil {
		return nil, err
	}
	if cfg.NumVideos, err = getEnvInt("NUM_VIDEOS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = getEnvInt("MAX_WORKERS", system.DefaultWorkers()); err != nil {
		return nil, err
	}
	if cfg.TargetWidth, err = getEnvInt("TARGET_WIDTH", 1080); err != nil {
		return nil, err
	}
	if cfg.TargetHeight, err = getEnvInt("TARGET_HEIGHT", 1920); err != nil {
		return nil, err
	}
	if cfg.MultiReactions, err = getEnvBool("ENABLE_MULTI_REACTIONS", false); err != nil {
		return nil, err
	}
	if cfg.VisualEnhance, err = getEnvBool("ENABLE_VISUAL_ENHANCEMENTS", false); err != nil {
		return nil, err
	}
	if cfg.ShowStats, err = getEnvBool("SHOW_STATS", false); err != nil {
		return nil, err
	}

	if cfg.VideoFPS < 1 {
		return nil, fmt.Errorf("VIDEO_FPS must be at least 1, got %d", cfg.VideoFPS)
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
