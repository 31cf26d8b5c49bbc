package xlsxparser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern finds the first decimal number in free text such as "25分钟".
var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// DurationKind says how a duration cell was read.
type DurationKind int

const (
	// DurationBlank means the cell was missing or blank.
	DurationBlank DurationKind = iota
	// DurationNumeric means the cell held a plain number.
	DurationNumeric
	// DurationText means a number was extracted from free text.
	DurationText
	// DurationUnparsed means the text held no number at all.
	DurationUnparsed
)

// ParseDuration reads a duration cell in minutes. Negative or non-finite
// numbers are clamped to 0.
func ParseDuration(cell *string) (float64, DurationKind) {
	if cell == nil {
		return 0, DurationBlank
	}
	text := strings.TrimSpace(*cell)
	if text == "" {
		return 0, DurationBlank
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, DurationNumeric
		}
		return v, DurationNumeric
	}

	match := numberPattern.FindString(text)
	if match == "" {
		return 0, DurationUnparsed
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, DurationUnparsed
	}
	return v, DurationText
}

// ParseID reads the row sequence number. ok is false when the cell is not
// an integer, including fractional values.
func ParseID(cell string) (int, bool) {
	text := strings.TrimSpace(cell)
	if n, err := strconv.Atoi(text); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}
