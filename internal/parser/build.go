package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLength applies to Format 1 and to Format 2 without a usable duration.
	DefaultLength = 30 * time.Minute
	// DefaultDuration is the Format 2 duration text used when none is pasted.
	DefaultDuration = "30 mins"
	// DefaultShopName is the location given to Format 2 records.
	DefaultShopName = "Gentlemen Jacks"
)

// anchorDate is the date-shaped token that opens one appointment block.
type anchorDate struct {
	raw   string
	day   int
	month string
	year  int
}

func matchAnchor(line string) (anchorDate, bool) {
	m := anchorRe.FindStringSubmatch(line)
	if m == nil {
		return anchorDate{}, false
	}
	// \d{1,2} and \d{4} always fit an int.
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	return anchorDate{raw: m[0], day: day, month: m[2], year: year}, true
}

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// monthFromName accepts any month name whose first three letters identify
// it, so "Apr", "April" and "SEPT" all resolve.
func monthFromName(name string) (time.Month, error) {
	if len(name) < 3 {
		return 0, fmt.Errorf("month name %q too short", name)
	}
	m, ok := months[strings.ToLower(name[:3])]
	if !ok {
		return 0, fmt.Errorf("unknown month name %q", name)
	}
	return m, nil
}

// clock is a parsed time of day. found is false when the line had no
// hh:mm token, in which case hour and minute are zero.
type clock struct {
	hour   int
	minute int
	found  bool
}

func parseClock(line string, ok bool) clock {
	if !ok {
		return clock{}
	}
	m := clockPartsRe.FindStringSubmatch(line)
	if m == nil {
		return clock{}
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return clock{hour: NormalizeHour(hour, line), minute: minute, found: true}
}

// NormalizeHour applies the 12→24 hour rule used by both layouts: if the
// time line mentions "pm" anywhere and the hour is below 12, add 12.
// Already-24h values such as "17:00pm" and "12:30pm" are left alone, and
// "12:xxam" is not mapped to 0.
func NormalizeHour(hour int, timeLine string) int {
	if strings.Contains(strings.ToLower(timeLine), "pm") && hour < 12 {
		return hour + 12
	}
	return hour
}

// buildStart turns an anchor and a clock into a wall-clock time. Out of
// range values (day 31 in April, hour 24) are handed to time.Date as-is and
// roll forward.
func buildStart(a anchorDate, hour, minute int, loc *time.Location) (time.Time, error) {
	month, err := monthFromName(a.month)
	if err != nil {
		return time.Time{}, fmt.Errorf("anchor %q: %w", a.raw, err)
	}
	return time.Date(a.year, month, a.day, hour, minute, 0, 0, loc), nil
}

// durationLength reads the leading integer of a duration such as "45 mins".
func durationLength(duration string) time.Duration {
	m := leadingIntRe.FindStringSubmatch(duration)
	if m == nil {
		return DefaultLength
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultLength
	}
	return time.Duration(n) * time.Minute
}

func matchStylist(line string, ok bool) string {
	if !ok {
		return ""
	}
	m := stylistRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

func matchService(line string, ok bool) string {
	if !ok {
		return ""
	}
	m := serviceRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}
