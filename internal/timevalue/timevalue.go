package timevalue

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Inputs longer than this are rejected before any parsing happens.
const maxInputLen = 10

// Parse converts a time-cell input into decimal hours. It accepts either
// "H:MM" or plain decimal hours ("4.5"). The returned value is rounded to
// hundredths of an hour so repeated Format/Parse cycles stay stable.
func Parse(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	if len(value) > maxInputLen {
		return 0, fmt.Errorf("time input too long")
	}

	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		if len(parts) > 2 {
			return 0, fmt.Errorf("invalid time format, use H:MM or decimal hours")
		}

		h, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			h = 0
		}
		m, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			m = 0
		}

		if h < 0 || h > 24 {
			return 0, fmt.Errorf("hours must be between 0 and 24")
		}
		if m < 0 || m >= 60 {
			return 0, fmt.Errorf("minutes must be between 0 and 59")
		}

		total := h + m/60
		if total > 24 {
			return 0, fmt.Errorf("total time cannot exceed 24 hours per day")
		}

		return Round(total), nil
	}

	dec, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(dec) {
		return 0, fmt.Errorf("not a valid number")
	}
	if dec < 0 {
		return 0, fmt.Errorf("time cannot be negative")
	}
	if dec > 24 {
		return 0, fmt.Errorf("time cannot exceed 24 hours per day")
	}

	return Round(dec), nil
}

// Format renders decimal hours as "H:MM". Zero renders as "0:00".
func Format(hours float64) string {
	if hours == 0 {
		return "0:00"
	}

	hours = Round(hours)

	h := int(math.Floor(hours))
	m := int(math.Round((hours - float64(h)) * 60))

	// Minute rounding can overflow into the next hour (1.999 -> 2:00).
	if m == 60 {
		h++
		m = 0
	}

	return fmt.Sprintf("%d:%02d", h, m)
}

// Round truncates hours to hundredths, the engine-wide precision.
func Round(hours float64) float64 {
	return math.Round(hours*100) / 100
}
