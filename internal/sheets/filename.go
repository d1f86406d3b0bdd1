package sheets

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// MonthYearFromName pulls a month and a four digit year out of a
// document display name. Month matching is case-insensitive and
// accepts full and abbreviated English names anywhere in the name; the
// year must read as 20xx on its own word boundary. Names missing
// either part are not budget sheets and are skipped by the sync.
func MonthYearFromName(name string) (month, year int, ok bool) {
	lower := strings.ToLower(name)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if strings.Contains(lower, full) || strings.Contains(lower, full[:3]) {
			month = int(m)
			break
		}
	}
	if month == 0 {
		return 0, 0, false
	}
	match := yearPattern.FindStringSubmatch(name)
	if match == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(match[1])
	return month, year, true
}
