package templates

import (
	"fmt"
	"strconv"
	"strings"
)

// Verdict describes which side dominated a session and the color it is shown in.
type Verdict struct {
	Label       string
	Color       string
	Description string
}

// GetVerdict returns the verdict for the given tallies.
func GetVerdict(jekyll, hyde int) Verdict {
	switch {
	case jekyll > hyde:
		return Verdict{"JEKYLL", "#3b82f6", "Reason and conscience won most rounds."} // Blue
	case hyde > jekyll:
		return Verdict{"HYDE", "#ef4444", "Impulse and self-interest won most rounds."} // Red
	default:
		return Verdict{"BALANCED", "#a855f7", "Neither side could claim you."} // Purple
	}
}

// VerdictLegend lists every possible verdict, strongest Jekyll first.
func VerdictLegend() []Verdict {
	return []Verdict{GetVerdict(1, 0), GetVerdict(0, 1), GetVerdict(0, 0)}
}

// RGB splits the verdict color into components. Malformed colors yield black.
func (v Verdict) RGB() (r, g, b int) {
	hex := strings.TrimPrefix(v.Color, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff)
}

// Percent returns part as a whole-number percentage of total.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}

// TallyLine formats the score line shown on the final screen and in the report.
func TallyLine(jekyll, hyde int) string {
	total := jekyll + hyde
	return fmt.Sprintf("Jekyll %d (%d%%) / Hyde %d (%d%%)", jekyll, Percent(jekyll, total), hyde, Percent(hyde, total))
}
