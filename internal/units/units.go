// Package units converts CSS lengths into pixels.
//
// Only the units used by breakpoint stylesheets are understood: px, em and
// rem. Relative units resolve against a fixed 16px base font size.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Unit is a CSS length unit.
type Unit string

const (
	PX  Unit = "px"
	EM  Unit = "em"
	REM Unit = "rem"
)

// BaseFontSize is the pixel size of 1em / 1rem.
const BaseFontSize = 16

// Length is a parsed CSS length such as "40rem".
type Length struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  Unit    `json:"unit" yaml:"unit"`
}

// String renders the length in its declared unit.
func (l Length) String() string {
	return FormatNumber(l.Value) + string(l.Unit)
}

// MalformedLengthError is returned when a length has no numeric prefix or
// carries trailing garbage after its unit.
type MalformedLengthError struct {
	Input string
}

func (e *MalformedLengthError) Error() string {
	return fmt.Sprintf("malformed length %q", e.Input)
}

// UnsupportedUnitError names a unit that cannot be converted to pixels.
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported unit %q", e.Unit)
}

var (
	numberPrefix = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
	unitSuffix   = regexp.MustCompile(`^(?:[a-z]+|%)?$`)
)

// Parse splits a raw string like "40rem" into value and unit. An empty unit
// means px. The unit itself is not validated here; see ToPixels.
func Parse(s string) (Length, error) {
	raw := strings.TrimSpace(s)

	num := numberPrefix.FindString(raw)
	if num == "" {
		return Length{}, &MalformedLengthError{Input: s}
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, &MalformedLengthError{Input: s}
	}

	suffix := strings.ToLower(strings.TrimSpace(raw[len(num):]))
	if !unitSuffix.MatchString(suffix) {
		return Length{}, &MalformedLengthError{Input: s}
	}
	if suffix == "" {
		suffix = string(PX)
	}

	return Length{Value: value, Unit: Unit(suffix)}, nil
}

// ToPixels converts a length to pixels.
func ToPixels(l Length) (float64, error) {
	switch l.Unit {
	case PX:
		return l.Value, nil
	case EM, REM:
		return l.Value * BaseFontSize, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(l.Unit)}
	}
}

// Pixels parses s and converts it to pixels in one step.
func Pixels(s string) (float64, error) {
	l, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return ToPixels(l)
}

// FormatNumber prints a pixel or length value without a trailing ".0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
