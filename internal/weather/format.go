package weather

import (
	"math"
	"strconv"
)

// FormatValue renders v with zero decimal digits. NaN renders as "-" and a
// negative zero result renders as "0". Halves round to even.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	formatted := strconv.FormatFloat(math.RoundToEven(v), 'f', 0, 64)
	if formatted == "-0" {
		formatted = "0"
	}
	return formatted
}
