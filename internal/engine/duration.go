package engine

import (
	"fmt"
	"strings"
	"time"
)

// InvalidDurationError reports a PauseTime value that does not parse as
// the supported ISO 8601 duration subset.
type InvalidDurationError struct {
	Value  string
	Reason string
}

func (e *InvalidDurationError) Error() string {
	msg := fmt.Sprintf("Only ISO 8601 duration format of the form PnDTnHnMnS is supported: %q", e.Value)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// ParseDuration parses an ISO 8601 duration restricted to weeks, days,
// hours, minutes and seconds. Year and month components are rejected
// rather than approximated: a silent approximation would corrupt the
// update timeout feasibility estimate downstream.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, &InvalidDurationError{Value: s}
	}

	rest := s[1:]
	datePart := rest
	timePart := ""
	if i := strings.IndexByte(rest, 'T'); i >= 0 {
		datePart = rest[:i]
		timePart = rest[i+1:]
		if timePart == "" {
			return 0, &InvalidDurationError{Value: s}
		}
	}

	var total time.Duration
	components := 0

	// date designators, in order: W, D (Y and M unsupported)
	dateUnits := []struct {
		tag  byte
		unit time.Duration
	}{
		{'W', week},
		{'D', day},
	}
	pos := 0
	for _, du := range dateUnits {
		n, consumed, err := scanComponent(s, datePart[pos:], du.tag)
		if err != nil {
			return 0, err
		}
		if consumed == 0 {
			continue
		}
		total += time.Duration(n) * du.unit
		pos += consumed
		components++
	}
	if pos != len(datePart) {
		if c := trailingDesignator(datePart[pos:]); c == 'Y' || c == 'M' {
			return 0, &InvalidDurationError{
				Value:  s,
				Reason: "year and month duration components are not supported",
			}
		}
		return 0, &InvalidDurationError{Value: s}
	}

	// time designators, in order: H, M, S
	timeUnits := []struct {
		tag  byte
		unit time.Duration
	}{
		{'H', time.Hour},
		{'M', time.Minute},
		{'S', time.Second},
	}
	pos = 0
	for _, tu := range timeUnits {
		n, consumed, err := scanComponent(s, timePart[pos:], tu.tag)
		if err != nil {
			return 0, err
		}
		if consumed == 0 {
			continue
		}
		total += time.Duration(n) * tu.unit
		pos += consumed
		components++
	}
	if pos != len(timePart) {
		return 0, &InvalidDurationError{Value: s}
	}

	if components == 0 {
		return 0, &InvalidDurationError{Value: s}
	}
	return total, nil
}

// scanComponent reads a leading digit group tagged with the given unit
// designator. It returns the value and the number of bytes consumed,
// or (0, 0) when the next component carries a different designator.
func scanComponent(whole, s string, tag byte) (int64, int, error) {
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits >= len(s) || s[digits] != tag {
		return 0, 0, nil
	}
	var n int64
	for i := 0; i < digits; i++ {
		n = n*10 + int64(s[i]-'0')
		if n < 0 {
			return 0, 0, &InvalidDurationError{Value: whole, Reason: "duration component overflows"}
		}
	}
	return n, digits + 1, nil
}

// trailingDesignator returns the designator letter of the first
// unparsed component, if any
func trailingDesignator(s string) byte {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return s[i]
		}
	}
	return 0
}

// FormatDuration renders a duration in the same ISO 8601 subset accepted
// by ParseDuration. The zero duration renders as PT0S.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var sb strings.Builder
	sb.WriteByte('P')

	days := d / day
	d -= days * day
	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if hours > 0 || minutes > 0 || seconds > 0 {
		sb.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&sb, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&sb, "%dM", minutes)
		}
		if seconds > 0 {
			fmt.Fprintf(&sb, "%dS", seconds)
		}
	}

	return sb.String()
}
