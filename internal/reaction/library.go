package reaction

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a", ".aac"}

// Library is the categorized view of the reaction asset directories. The
// directories are read once at startup and shared read-only across workers.
type Library struct {
	rules    Rules
	gifs     map[string][]string
	audio    map[string][]string
	allGIFs  []string
	allAudio []string
}

// LoadLibrary scans the gif and audio directories and categorizes files by
// the filename patterns in rules. A missing or empty directory yields an
// empty library; selection then falls back to the neutral whole-library pick.
func LoadLibrary(gifDir, audioDir string, rules Rules) (*Library, error) {
	lib := &Library{
		rules: rules,
		gifs:  make(map[string][]string),
		audio: make(map[string][]string),
	}

	for _, path := range scanDir(gifDir, []string{".gif"}) {
		lib.allGIFs = append(lib.allGIFs, path)
		stem := fileStem(path)
		for category, patterns := range rules.GIFCategories {
			if matchesAny(stem, patterns) {
				lib.gifs[category] = append(lib.gifs[category], path)
			}
		}
	}

	for _, path := range scanDir(audioDir, audioExtensions) {
		lib.allAudio = append(lib.allAudio, path)
		stem := fileStem(path)
		for category, patterns := range rules.AudioCategories {
			if matchesAny(stem, patterns) {
				lib.audio[category] = append(lib.audio[category], path)
			}
		}
	}

	lib.rankByQuality()
	return lib, nil
}

// Empty reports whether no usable media was found at all.
func (l *Library) Empty() bool {
	return len(l.allGIFs) == 0 && len(l.allAudio) == 0
}

// GIFCount returns the number of scanned gifs, categorized or not.
func (l *Library) GIFCount() int { return len(l.allGIFs) }

// AudioCount returns the number of scanned audio clips.
func (l *Library) AudioCount() int { return len(l.allAudio) }

// BestGIF returns the top-ranked gif of a category, falling back to the
// whole library and finally to "" when nothing is available.
func (l *Library) BestGIF(category string) string {
	if files := l.gifs[category]; len(files) > 0 {
		return files[0]
	}
	if len(l.allGIFs) > 0 {
		return l.allGIFs[0]
	}
	return ""
}

// BestAudio returns the first audio clip of a category with the same
// fallback behavior as BestGIF.
func (l *Library) BestAudio(category string) string {
	if files := l.audio[category]; len(files) > 0 {
		return files[0]
	}
	if len(l.allAudio) > 0 {
		return l.allAudio[0]
	}
	return ""
}

// PickGIF returns a random gif of a category, falling back to the whole
// library and finally to "".
func (l *Library) PickGIF(category string, rng *rand.Rand) string {
	if files := l.gifs[category]; len(files) > 0 {
		return files[rng.Intn(len(files))]
	}
	if len(l.allGIFs) > 0 {
		return l.allGIFs[rng.Intn(len(l.allGIFs))]
	}
	return ""
}

// PickAudio returns a random audio clip of a category with the same fallback
// behavior as PickGIF.
func (l *Library) PickAudio(category string, rng *rand.Rand) string {
	if files := l.audio[category]; len(files) > 0 {
		return files[rng.Intn(len(files))]
	}
	if len(l.allAudio) > 0 {
		return l.allAudio[rng.Intn(len(l.allAudio))]
	}
	return ""
}

// rankByQuality orders every gif category so that files carrying a quality
// marker in their name come first, longer (more descriptive) stems next.
// The sort is stable, so listing order breaks remaining ties.
func (l *Library) rankByQuality() {
	for category := range l.gifs {
		files := l.gifs[category]
		sort.SliceStable(files, func(i, j int) bool {
			qi := matchesAny(fileStem(files[i]), l.rules.QualityMarkers)
			qj := matchesAny(fileStem(files[j]), l.rules.QualityMarkers)
			if qi != qj {
				return qi
			}
			return len(fileStem(files[i])) > len(fileStem(files[j]))
		})
	}
}

// scanDir lists files with one of the given extensions, in name order.
// Missing directories are treated as empty.
func scanDir(dir string, extensions []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return paths
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func matchesAny(stem string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(stem, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
