package render

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatValue renders v for labels: thousands separators below a million,
// SI suffixes above (1.23 T), with a currency prefix for USD units.
func FormatValue(v float64, unit string) string {
	var s string
	if math.Abs(v) >= 1e6 {
		s = humanize.SIWithDigits(v, 2, "")
		s = strings.Replace(s, " G", " B", 1)
	} else if math.Abs(v) >= 100 {
		s = humanize.CommafWithDigits(v, 0)
	} else {
		s = humanize.CommafWithDigits(v, 2)
	}
	s = strings.TrimSpace(s)
	switch strings.ToUpper(unit) {
	case "USD", "$":
		return "$" + s
	case "%":
		return s + "%"
	case "":
		return s
	default:
		return s + " " + unit
	}
}
