package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

var koreanAMPMPattern = regexp.MustCompile(`(\d{4})[.\-](\d{1,2})[.\-](\d{1,2})[.]?\s*(오전|오후)\s*(\d{1,2}):(\d{2})`)

// dateLayouts are tried in order against the full (date and time) string.
var dateLayouts = []string{
	"2006.1.2. 15:04",
	"2006.1.2 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006년 1월 2일 15:04",
	"2006.1.2.",
	"2006.1.2",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// dateOnlyLayouts are tried against just the first whitespace-delimited
// token when the full string fails to parse.
var dateOnlyLayouts = []string{
	"2006.1.2.",
	"2006.1.2",
	"2006-01-02",
}

// ParseDate parses a date string in one of the layouts this portal emits,
// interpreting naive times as Asia/Seoul and returning the equivalent UTC
// instant. RFC3339 strings (already carrying an offset) are honored as-is.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}

	if t, ok := parseKoreanAMPM(s); ok {
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, seoul); err == nil {
			return t.UTC(), true
		}
	}

	if fields := strings.Fields(s); len(fields) > 0 {
		for _, layout := range dateOnlyLayouts {
			if t, err := time.ParseInLocation(layout, fields[0], seoul); err == nil {
				return t.UTC(), true
			}
		}
	}

	return time.Time{}, false
}

// parseKoreanAMPM handles the 12-hour "오전/오후" (AM/PM) form, e.g.
// "2024.12.25. 오후 3:45".
func parseKoreanAMPM(s string) (time.Time, bool) {
	m := koreanAMPMPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	ampm := m[4]
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])

	switch ampm {
	case "오전":
		if hour == 12 {
			hour = 0
		}
	case "오후":
		if hour != 12 {
			hour += 12
		}
	default:
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, seoul)
	return t.UTC(), true
}
