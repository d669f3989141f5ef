package system

import (
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// InitResourceLimits raises the open-file limit. Each in-flight job holds a
// frame sequence plus ffmpeg pipes, so the default soft limit can run out
// on wide worker pools.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise file limit: %v", err)
	}
}

// DefaultWorkers returns half of the machine's physical cores, matching the
// rule that one encoding job saturates roughly two cores. Falls back to
// logical CPUs when gopsutil cannot inspect the host.
func DefaultWorkers() int {
	count, err := cpu.Counts(false)
	if err != nil || count <= 0 {
		count = runtime.NumCPU()
	}
	workers := count / 2
	if workers < 1 {
		workers = 1
	}
	return workers
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg advertises
// one, otherwise libx264.
func GetBestH264Encoder() string {
	candidates := []string{"h264_videotoolbox", "h264_nvenc"}

	cmd := exec.Command("ffmpeg", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range candidates {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality returns the encoder-appropriate quality knob: CRF for
// libx264, CQ for NVENC, bitrate multiplier for VideoToolbox.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// ProbeDuration returns the duration of a media file in seconds via ffprobe.
func ProbeDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return 0, fmt.Errorf("parse probe output for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q for %s: %w", probe.Format.Duration, path, err)
	}
	return duration, nil
}
