package ai

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// namePatterns are tried in order; the first match decides.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmy\s+name\s+is\s+([a-z][a-z\-'\s]{1,40})`),
	regexp.MustCompile(`\bi\s*['’]?m\s+([a-z][a-z\-'\s]{1,40})`),
	regexp.MustCompile(`\bi\s+am\s+([a-z][a-z\-'\s]{1,40})`),
	regexp.MustCompile(`\bthis\s+is\s+([a-z][a-z\-'\s]{1,40})`),
}

// notNames are words that follow "I'm", "I am" or "this is" without being a name.
var notNames = map[string]bool{
	"looking": true, "calling": true, "interested": true, "trying": true, "wondering": true,
	"hoping": true, "going": true, "available": true, "free": true, "not": true,
	"just": true, "here": true, "sorry": true, "fine": true, "good": true, "ok": true,
	"okay": true, "a": true, "the": true, "booking": true, "checking": true, "asking": true,
	"for": true, "about": true, "with": true, "in": true, "at": true,
}

// ExtractName applies the name patterns to utterance. The returned word keeps
// the caller's original casing.
func ExtractName(utterance string) string {
	lower := strings.ToLower(utterance)
	sameOffsets := len(lower) == len(utterance)

	for _, pat := range namePatterns {
		loc := pat.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		span := lower[loc[2]:loc[3]]
		if sameOffsets {
			span = utterance[loc[2]:loc[3]]
		}
		fields := strings.Fields(span)
		if len(fields) == 0 || notNames[strings.ToLower(fields[0])] {
			return ""
		}
		return strings.Trim(fields[0], "-'")
	}
	return ""
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ResolveRelativeDate looks for "today", "tomorrow" or a weekday name, in that
// priority. A weekday equal to today's resolves to the same day next week.
func ResolveRelativeDate(utterance string, today time.Time) string {
	lower := strings.ToLower(utterance)
	switch {
	case strings.Contains(lower, "today"):
		return today.Format(dateLayout)
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1).Format(dateLayout)
	}
	for _, day := range weekdays {
		if !strings.Contains(lower, strings.ToLower(day.String())) {
			continue
		}
		ahead := (int(day) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead).Format(dateLayout)
	}
	return ""
}

// CorrectPastDate moves a date before today into the current year, or the
// next one when that is still past. Feb 29 moves to the next leap year that
// has not passed. Unparseable dates are returned unchanged.
func CorrectPastDate(date string, today time.Time) string {
	parsed, err := time.ParseInLocation(dateLayout, date, today.Location())
	if err != nil {
		return date
	}
	today = truncateDay(today)
	if !parsed.Before(today) {
		return date
	}
	for year := today.Year(); year <= today.Year()+8; year++ {
		adjusted := time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, today.Location())
		if adjusted.Day() != parsed.Day() {
			continue // no Feb 29 that year
		}
		if !adjusted.Before(today) {
			return adjusted.Format(dateLayout)
		}
	}
	return date
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2})(?:[:.h](\d{2}))?\s*(am\b|pm\b|a\.m\.?|p\.m\.?)?$`)
	timeMention  = regexp.MustCompile(`(\bat\s+)?\b(\d{1,2})(?:[:.](\d{2}))?\s*(am\b|pm\b|a\.m\.?|p\.m\.?)?`)
)

// NormalizeTime turns "3pm", "3:30 PM" or "15:30" into "HH:MM". Hours without
// a meridiem before 9 are read as afternoon, since the shop never opens that early.
func NormalizeTime(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return ""
	case "noon", "midday":
		return "12:00"
	}
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return clockFromParts(m[1], m[2], m[3])
}

// FindTime returns the first time-of-day mention in free text. A bare number
// only counts after "at", so "2 haircuts" is not a time.
func FindTime(text string) string {
	lower := strings.ToLower(text)
	for _, m := range timeMention.FindAllStringSubmatch(lower, -1) {
		if m[1] == "" && m[3] == "" && m[4] == "" {
			continue
		}
		if clock := clockFromParts(m[2], m[3], m[4]); clock != "" {
			return clock
		}
	}
	if strings.Contains(lower, "noon") {
		return "12:00"
	}
	return ""
}

func clockFromParts(hourStr, minuteStr, meridiem string) string {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return ""
	}
	minute := 0
	if minuteStr != "" {
		if minute, err = strconv.Atoi(minuteStr); err != nil {
			return ""
		}
	}
	if minute > 59 {
		return ""
	}

	switch strings.ReplaceAll(meridiem, ".", "") {
	case "am":
		if hour < 1 || hour > 12 {
			return ""
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return ""
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return ""
		}
		if hour >= 1 && hour < 9 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
