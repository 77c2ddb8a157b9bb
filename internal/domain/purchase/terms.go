// internal/domain/purchase/terms.go
package purchase

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseNetTermsDays extracts the day count from a "Net N" payment terms
// string such as "Net 30" or "net45". The string must contain "net"
// (case-insensitive) and at least one run of digits; the first run
// wins. Anything else returns ok=false and no due date is derived.
func ParseNetTermsDays(terms string) (int, bool) {
	if !strings.Contains(strings.ToLower(terms), "net") {
		return 0, false
	}

	start := -1
	for i, r := range terms {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			days, err := strconv.Atoi(terms[start:i])
			if err != nil {
				return 0, false
			}
			return days, true
		}
	}
	if start >= 0 {
		days, err := strconv.Atoi(terms[start:])
		if err != nil {
			return 0, false
		}
		return days, true
	}
	return 0, false
}
