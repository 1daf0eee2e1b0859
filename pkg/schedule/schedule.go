// Package schedule turns free-text opening hours ("Mon-Fri", "9:00 AM - 6:00 PM")
// into structured weekday rows. Unrecognized input is dropped, never an error.
package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Weekdays are numbered 1 (Monday) through 7 (Sunday).
const (
	Monday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[string]int{
	"monday": Monday, "mon": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "tues": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday,
	"thursday": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday,
	"friday": Friday, "fri": Friday,
	"saturday": Saturday, "sat": Saturday,
	"sunday": Sunday, "sun": Sunday,
}

// dashes accepted between range ends and between span ends: hyphen, en-dash, em-dash
const dashes = "-–—"

var (
	spanPattern    = regexp.MustCompile(`^(.+?)\s*[-\x{2013}\x{2014}]\s*(.+)$`)
	clock12Pattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?$`)
	clock24Pattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// String renders the clock the way Postgres TIME columns do ("09:00:00").
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour, c.Minute)
}

// Span is a parsed opening interval. Open and Close are nil when the text
// was closed or could not be understood.
type Span struct {
	Open     *Clock
	Close    *Clock
	IsClosed bool
}

// Unspecified reports whether the span carries no information at all.
func (s Span) Unspecified() bool {
	return s.Open == nil && s.Close == nil && !s.IsClosed
}

// Entry is one free-text schedule line.
type Entry struct {
	Day  string
	Time string
}

// Row is one structured weekday produced from an Entry.
type Row struct {
	Weekday int
	Span
}

// ParseWeekdayToken expands a weekday token into an ascending set of weekday
// numbers. Ranges never wrap around: "Sun-Mon" is empty.
func ParseWeekdayToken(token string) []int {
	token = stripSpace(token)
	if token == "" {
		return nil
	}

	if strings.ContainsAny(token, dashes) {
		parts := strings.FieldsFunc(token, func(r rune) bool {
			return strings.ContainsRune(dashes, r)
		})
		if len(parts) != 2 {
			return nil
		}
		start, ok := lookupDay(parts[0])
		if !ok {
			return nil
		}
		end, ok := lookupDay(parts[1])
		if !ok || start > end {
			return nil
		}
		days := make([]int, 0, end-start+1)
		for d := start; d <= end; d++ {
			days = append(days, d)
		}
		return days
	}

	if d, ok := lookupDay(token); ok {
		return []int{d}
	}
	return nil
}

func lookupDay(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= Monday && n <= Sunday {
			return n, true
		}
		return 0, false
	}
	d, ok := weekdayNames[strings.ToLower(s)]
	return d, ok
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseTimeSpan parses "Closed" or "<time> - <time>".
func ParseTimeSpan(text string) Span {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "closed") {
		return Span{IsClosed: true}
	}

	m := spanPattern.FindStringSubmatch(text)
	if m == nil {
		return Span{}
	}
	open, ok := parseClock(m[1])
	if !ok {
		return Span{}
	}
	closing, ok := parseClock(m[2])
	if !ok {
		return Span{}
	}
	return Span{Open: &open, Close: &closing}
}

func parseClock(s string) (Clock, bool) {
	s = strings.TrimSpace(s)

	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return Clock{}, false
		}
		hour %= 12
		if strings.EqualFold(m[3], "p") {
			hour += 12
		}
		return Clock{Hour: hour, Minute: minute}, true
	}

	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour > 23 || minute > 59 {
			return Clock{}, false
		}
		return Clock{Hour: hour, Minute: minute}, true
	}

	return Clock{}, false
}

// Normalize fans every entry out to one row per weekday. If two entries name
// the same weekday the later one wins. Rows come back ordered by weekday.
func Normalize(entries []Entry) []Row {
	byDay := make(map[int]Span)
	for _, e := range entries {
		days := ParseWeekdayToken(e.Day)
		if len(days) == 0 {
			continue
		}
		span := ParseTimeSpan(e.Time)
		for _, d := range days {
			byDay[d] = span
		}
	}

	rows := make([]Row, 0, len(byDay))
	for d, span := range byDay {
		rows = append(rows, Row{Weekday: d, Span: span})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Weekday < rows[j].Weekday })
	return rows
}
