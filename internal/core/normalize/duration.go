package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// ParseDuration reads seconds from a number, a numeric string, a clock
// string ("3:20", "1:02:03") or an ISO-8601 duration ("PT3M20S").
func ParseDuration(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return nonNegative(v)
	case int:
		return nonNegative(float64(v))
	case int64:
		return nonNegative(float64(v))
	case string:
		return parseDurationString(strings.TrimSpace(v))
	default:
		return 0, false
	}
}

func nonNegative(v float64) (int, bool) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int(math.Round(v)), true
}

func parseDurationString(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return nonNegative(f)
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	upper := strings.ToUpper(s)
	if m := isoDurationPattern.FindStringSubmatch(upper); m != nil && upper != "P" && upper != "PT" {
		total := 0.0
		for i, unit := range []float64{86400, 3600, 60} {
			if m[i+1] != "" {
				n, _ := strconv.Atoi(m[i+1])
				total += float64(n) * unit
			}
		}
		if m[4] != "" {
			secs, _ := strconv.ParseFloat(m[4], 64)
			total += secs
		}
		return nonNegative(total)
	}
	return 0, false
}

func parseClock(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
