package particle

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// SafeValue guards numeric configuration before it reaches the simulation.
// NaN and ±Inf are replaced by fallback; everything else is clamped to [min, max].
func SafeValue(value, fallback, min, max float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SafeColor clamps every channel into [0, 1], replacing non-finite channels with 1.
func SafeColor(r, g, b float64) Color {
	return Color{
		R: SafeValue(r, 1.0, 0, 1),
		G: SafeValue(g, 1.0, 0, 1),
		B: SafeValue(b, 1.0, 0, 1),
	}
}

// SafeRange applies SafeValue to both ends of r.
func SafeRange(r, fallback Range, min, max float64) Range {
	return Range{
		Min: SafeValue(r.Min, fallback.Min, min, max),
		Max: SafeValue(r.Max, fallback.Max, min, max),
	}
}

// RandomInRange returns a uniform sample in [min, max) using rng.
// When min >= max it returns min.
func RandomInRange(rng *rand.Rand, min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// ParseRange parses a range string from a particle preset.
// Supported formats:
//   - Fixed value: "1500" → {1500, 1500}
//   - Range: "[0.7 0.9]" → {0.7, 0.9}
//
// Empty strings are reported via ok=false so callers can keep their defaults.
func ParseRange(s string) (r Range, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, false, nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return Range{}, false, fmt.Errorf("unterminated range %q", s)
		}
		parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
		if len(parts) != 2 {
			return Range{}, false, fmt.Errorf("range %q must have exactly two values", s)
		}
		min, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Range{}, false, fmt.Errorf("invalid range min in %q: %w", s, err)
		}
		max, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Range{}, false, fmt.Errorf("invalid range max in %q: %w", s, err)
		}
		return Range{Min: min, Max: max}, true, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Range{}, false, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return Range{Min: v, Max: v}, true, nil
}
