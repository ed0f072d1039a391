package ranking

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatScore renders a raw score for humans according to its score type.
func FormatScore(score float64, scoreType string, m Method, target *float64) string {
	switch {
	case scoreType == "time":
		if score < 60 {
			return fmt.Sprintf("%.1fs", score)
		}
		minutes := int(score / 60)
		seconds := math.Mod(score, 60)
		return fmt.Sprintf("%02d:%04.1f", minutes, seconds)
	case scoreType == "attempts":
		return formatNumber(score) + " attempts"
	case scoreType == "level":
		return "Level " + formatNumber(score)
	case scoreType == "clicks":
		return groupThousands(formatNumber(score)) + " clicks"
	case strings.Contains(scoreType, "%") || m == HighestPercentage || m == LowestPercentage:
		return fmt.Sprintf("%.1f%%", score)
	case m == ClosestToTarget && target != nil:
		return fmt.Sprintf("%s (target: %s)", formatNumber(score), formatNumber(*target))
	default:
		return groupThousands(formatNumber(score))
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupThousands inserts comma separators into the integer part of s.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
