package fetch

import (
	"fmt"
	"regexp"
	"strconv"
)

// isoDuration matches ISO-8601 duration expressions as the provider emits
// them: each component optional, fractional seconds allowed.
var isoDuration = regexp.MustCompile(
	`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// Fixed multipliers in seconds. Years and months use 365- and 30-day
// approximations; the provider never returns calendar-relative values.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 7 * secondsPerDay
	secondsPerMonth  = 30 * secondsPerDay
	secondsPerYear   = 365 * secondsPerDay
)

// ParseISODuration converts an ISO-8601 duration expression to seconds.
func ParseISODuration(expr string) (float64, error) {
	m := isoDuration.FindStringSubmatch(expr)
	if m == nil || expr == "P" || expr == "PT" {
		return 0, fmt.Errorf("invalid duration expression %q", expr)
	}

	var total float64
	multipliers := []float64{
		secondsPerYear, secondsPerMonth, secondsPerWeek, secondsPerDay,
		secondsPerHour, secondsPerMinute, 1,
	}
	for i, mult := range multipliers {
		group := m[i+1]
		if group == "" {
			continue
		}
		v, err := strconv.ParseFloat(group, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration component %q in %q", group, expr)
		}
		total += v * mult
	}
	return total, nil
}
