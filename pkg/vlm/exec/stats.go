package exec

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	promptPattern     = regexp.MustCompile(`^Prompt: (\d+) tokens, ([0-9.]+) tokens-per-sec$`)
	generationPattern = regexp.MustCompile(`^Generation: (\d+) tokens, ([0-9.]+) tokens-per-sec$`)
	memoryPattern     = regexp.MustCompile(`^Peak memory: ([0-9.]+) GB$`)
)

// stats holds the counters reported by mlx_vlm style generators at the
// end of a run.
type stats struct {
	promptTokens int
	promptTPS    float64

	generationTokens int
	generationTPS    float64

	peakMemory float64
}

func (s *stats) parse(line string) bool {
	line = strings.TrimSpace(line)

	if m := promptPattern.FindStringSubmatch(line); m != nil {
		s.promptTokens, _ = strconv.Atoi(m[1])
		s.promptTPS, _ = strconv.ParseFloat(m[2], 64)

		return true
	}

	if m := generationPattern.FindStringSubmatch(line); m != nil {
		s.generationTokens, _ = strconv.Atoi(m[1])
		s.generationTPS, _ = strconv.ParseFloat(m[2], 64)

		return true
	}

	if m := memoryPattern.FindStringSubmatch(line); m != nil {
		s.peakMemory, _ = strconv.ParseFloat(m[1], 64)
		return true
	}

	return false
}
