// Package isotime keeps timestamps sent to GRID in ISO-8601 form with an
// explicit timezone. The central-data API takes date bounds as strings, not
// DateTime scalars, and silently misreads zone-less values.
package isotime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned for input that is not YYYY-MM-DDTHH:mm:ss[.fff]
// with (or normalizable to) a timezone marker.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Layout matches JavaScript's Date.toISOString, which GRID examples use.
const Layout = "2006-01-02T15:04:05.000Z07:00"

var (
	datePrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?`)
	zoneSuffix  = regexp.MustCompile(`([Zz]|[+-]\d{2}:?\d{2})$`)
	withZone    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?([Zz]|[+-]\d{2}:?\d{2})$`)
	withoutZone = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`)

	compactOffset = regexp.MustCompile(`([+-]\d{2})(\d{2})$`)
)

// Format renders t in UTC with millisecond precision and a trailing Z.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Ensure normalizes input and then asserts it carries a timezone, returning
// the string that is safe to send upstream.
func Ensure(input string) (string, error) {
	normalized, err := normalize(input)
	if err != nil {
		return "", err
	}
	if err := assertHasTimezone(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// Parse runs Ensure and returns the instant the string names.
func Parse(input string) (time.Time, error) {
	normalized, err := Ensure(input)
	if err != nil {
		return time.Time{}, err
	}

	// time.RFC3339Nano wants an upper-case Z and a colon in numeric offsets.
	value := normalized
	if strings.HasSuffix(value, "z") {
		value = strings.TrimSuffix(value, "z") + "Z"
	}
	if m := compactOffset.FindStringSubmatch(value); m != nil {
		value = strings.TrimSuffix(value, m[0]) + m[1] + ":" + m[2]
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, normalized, err)
	}
	return t, nil
}

// normalize appends Z to a zone-less timestamp and leaves zoned ones alone.
func normalize(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrMalformedTimestamp)
	}
	if !datePrefix.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q is not ISO-8601", ErrMalformedTimestamp, trimmed)
	}
	if zoneSuffix.MatchString(trimmed) {
		return trimmed, nil
	}
	return trimmed + "Z", nil
}

func assertHasTimezone(input string) error {
	trimmed := strings.TrimSpace(input)
	if withZone.MatchString(trimmed) {
		return nil
	}
	if withoutZone.MatchString(trimmed) {
		return fmt.Errorf("%w: %q is missing a timezone, expected YYYY-MM-DDTHH:mm:ssZ or YYYY-MM-DDTHH:mm:ss+HH:mm",
			ErrMalformedTimestamp, trimmed)
	}
	return fmt.Errorf("%w: %q", ErrMalformedTimestamp, trimmed)
}
