package export

import (
	"strconv"
	"time"
)

// DateLayout is the date-only format used in exported files.
const DateLayout = "02-01-2006"

// YesNo maps a boolean to the literal export strings.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Date formats a timestamp as a date-only cell value; zero times render
// empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Float renders a numeric cell without trailing zeros.
func Float(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Int renders an integer cell.
func Int(i int) string {
	return strconv.Itoa(i)
}
