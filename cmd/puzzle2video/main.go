package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivlev/puzzle2video/internal/config"
	"github.com/ivlev/puzzle2video/internal/engine"
	"github.com/ivlev/puzzle2video/internal/reaction"
	"github.com/ivlev/puzzle2video/internal/system"
)

func main() {
	system.InitResourceLimits()

	if err := godotenv.Load(); err == nil {
		fmt.Println("[*] Loaded settings from .env")
	}

	csvPtr := flag.String("csv", "", "Path to the puzzle CSV (overrides CSV_FILE_PATH)")
	numPtr := flag.Int("num", 0, "Number of videos to produce (overrides NUM_VIDEOS)")
	workersPtr := flag.Int("workers", 0, "Concurrent encoding jobs (overrides MAX_WORKERS)")
	templatePtr := flag.String("template", "", "Video template: engaging, clean, speed (overrides VIDEO_TEMPLATE)")
	outputPtr := flag.String("output", "", "Output directory (overrides OUTPUT_DIR_NAME)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 - auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	writeRulesPtr := flag.String("write-rules", "", "Write the built-in reaction rules to the given YAML file and exit")
	flag.Parse()

	if *writeRulesPtr != "" {
		if err := reaction.WriteRules(reaction.DefaultRules(), *writeRulesPtr); err != nil {
			log.Fatalf("[-] Could not write rules: %v", err)
		}
		fmt.Printf("[+++] Reaction rules written to %s\n", *writeRulesPtr)
		return
	}

	if *csvPtr != "" {
		os.Setenv("CSV_FILE_PATH", *csvPtr)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[-] Configuration error: %v", err)
	}
	if *numPtr > 0 {
		cfg.NumVideos = *numPtr
	}
	if *workersPtr > 0 {
		cfg.MaxWorkers = *workersPtr
	}
	if *templatePtr != "" {
		cfg.Template = *templatePtr
	}
	if *outputPtr != "" {
		cfg.OutputDir = *outputPtr
	}

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", cfg.VideoEncoder)
		}
	}
	cfg.Quality = *qualityPtr
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	for _, d := range []string{cfg.OutputDir, cfg.ReactionGIFDir, cfg.ReactionAudioDir} {
		os.MkdirAll(d, 0755)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("[-] Initialization error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := eng.Run(ctx)
	if err != nil {
		log.Fatalf("[-] Run aborted: %v", err)
	}

	fmt.Printf("[+++] Done: %d/%d videos in %s (output: %s)\n",
		res.Succeeded, res.Total, res.Elapsed.Round(time.Second), cfg.OutputDir)
	if res.Failed > 0 {
		fmt.Printf("[!] %d puzzles failed, see the log above\n", res.Failed)
		os.Exit(1)
	}
}
