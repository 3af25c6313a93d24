package formatters

import (
	"fmt"
	"strings"
	"time"
)

// GeneralizedTimeLayout is the layout AD uses for whenCreated / whenChanged.
const GeneralizedTimeLayout = "20060102150405.0Z"

// ParseGeneralizedTime converts an AD Generalized-Time string to a time.Time.
// An empty input yields the zero time and no error.
func ParseGeneralizedTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(GeneralizedTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid generalized time %q: %w", value, err)
	}
	return parsed, nil
}

// SanitizeString drops invalid UTF-8 so values can be written to a workbook.
func SanitizeString(value string) string {
	return strings.ToValidUTF8(value, "")
}

// LastValue returns the last element of a multi-valued attribute. objectClass lists
// the class hierarchy from top down, so the last value is the most specific class.
func LastValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}
