package config

import "testing"

func TestFromEnvRequiresCSVPath(t *testing.T) {
	t.Setenv("CSV_FILE_PATH", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when CSV_FILE_PATH is unset")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CSV_FILE_PATH", "puzzles.csv")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.CSVFilePath != "puzzles.csv" {
		t.Errorf("CSVFilePath: expected puzzles.csv, got %s", cfg.CSVFilePath)
	}
	if cfg.TempDirPrefix != "temp_media/temp_pngs" {
		t.Errorf("TempDirPrefix: unexpected default %s", cfg.TempDirPrefix)
	}
	if cfg.OutputDir != "temp_media/outputs" {
		t.Errorf("OutputDir: unexpected default %s", cfg.OutputDir)
	}
	if cfg.VideoFPS != 1 {
		t.Errorf("VideoFPS: expected 1, got %d", cfg.VideoFPS)
	}
	if cfg.NumVideos != 100 {
		t.Errorf("NumVideos: expected 100, got %d", cfg.NumVideos)
	}
	if cfg.Template != "engaging" {
		t.Errorf("Template: expected engaging, got %s", cfg.Template)
	}
	if cfg.MultiReactions || cfg.VisualEnhance {
		t.Error("reaction/visual toggles should default to false")
	}
	if cfg.MaxWorkers < 1 {
		t.Errorf("MaxWorkers must be at least 1, got %d", cfg.MaxWorkers)
	}
	if cfg.TargetWidth != 1080 || cfg.TargetHeight != 1920 {
		t.Errorf("target size: expected 1080x1920, got %dx%d", cfg.TargetWidth, cfg.TargetHeight)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CSV_FILE_PATH", "puzzles.csv")
	t.Setenv("NUM_VIDEOS", "5")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("VIDEO_TEMPLATE", "speed")
	t.Setenv("ENABLE_MULTI_REACTIONS", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.NumVideos != 5 {
		t.Errorf("NumVideos: expected 5, got %d", cfg.NumVideos)
	}
	if cfg.MaxWorkers != 3 {
		t.Errorf("MaxWorkers: expected 3, got %d", cfg.MaxWorkers)
	}
	if cfg.Template != "speed" {
		t.Errorf("Template: expected speed, got %s", cfg.Template)
	}
	if !cfg.MultiReactions {
		t.Error("MultiReactions: expected true")
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"VIDEO_FPS", "one"},
		{"VIDEO_FPS", "0"},
		{"NUM_VIDEOS", "many"},
		{"ENABLE_MULTI_REACTIONS", "yep"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("CSV_FILE_PATH", "puzzles.csv")
			t.Setenv(tt.key, tt.value)

			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestFromEnvDirectoryAliases(t *testing.T) {
	t.Setenv("CSV_FILE_PATH", "puzzles.csv")
	t.Setenv("TEMP_DIR", "scratch")
	t.Setenv("OUTPUT_DIR", "shorts")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.TempDirPrefix != "scratch" {
		t.Errorf("TempDirPrefix = %q, want alias value", cfg.TempDirPrefix)
	}
	if cfg.OutputDir != "shorts" {
		t.Errorf("OutputDir = %q, want alias value", cfg.OutputDir)
	}

	// The long form wins over the alias.
	t.Setenv("TEMP_PNG_DIR_NAME", "temp_pngs")
	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.TempDirPrefix != "temp_pngs" {
		t.Errorf("TempDirPrefix = %q, want long-form value", cfg.TempDirPrefix)
	}
}
