// Package dateparse turns the publish-date strings produced by crawlers
// ("3일 전", "2 hours ago", "2024. 3. 5.") into absolute timestamps.
package dateparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	absoluteDate = regexp.MustCompile(`^(\d{4})[.-](\d{1,2})[.-](\d{1,2})[.-]?$`)
	notDateChars = regexp.MustCompile(`[^0-9.\-]`)
	firstNumber  = regexp.MustCompile(`\d+`)

	dateSeparators = strings.NewReplacer("年", ".", "月", ".", "日", "", "/", ".")
)

type unit struct {
	keywords []string
	apply    func(now time.Time, n int) (time.Time, bool)
}

func fixed(d time.Duration) func(time.Time, int) (time.Time, bool) {
	return func(now time.Time, n int) (time.Time, bool) {
		if int64(n) > math.MaxInt64/int64(d) {
			return now, false
		}
		return now.Add(-time.Duration(n) * d), true
	}
}

func calendar(years, months int) func(time.Time, int) (time.Time, bool) {
	return func(now time.Time, n int) (time.Time, bool) {
		if n > math.MaxInt32 {
			return now, false
		}
		t := now.AddDate(-years*n, -months*n, 0)
		if t.Year() < 1 {
			return now, false
		}
		return t, true
	}
}

// Checked in order; the first unit whose keyword appears wins.
var units = []unit{
	{[]string{"초", "秒", "second", "sec"}, fixed(time.Second)},
	{[]string{"분", "分", "minute", "min"}, fixed(time.Minute)},
	{[]string{"시간", "時間", "hour"}, fixed(time.Hour)},
	{[]string{"일", "日", "day"}, fixed(24 * time.Hour)},
	{[]string{"주", "週", "week"}, fixed(7 * 24 * time.Hour)},
	{[]string{"달", "개월", "か月", "ヶ月", "カ月", "month"}, calendar(0, 1)},
	{[]string{"년", "年", "year"}, calendar(1, 0)},
}

// Normalize converts a raw publish-date string into an absolute time relative
// to now. It never fails: empty, unrecognised, or out-of-range input yields
// now. Every result is truncated to whole seconds.
func Normalize(text string, now time.Time) time.Time {
	now = now.Truncate(time.Second)

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return now
	}

	if t, ok := parseAbsolute(text, now.Location()); ok {
		return t
	}
	if isAbsoluteShape(text) {
		return now
	}

	n := 1
	if m := firstNumber.FindString(text); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			return now
		}
		n = v
	}

	for _, u := range units {
		for _, kw := range u.keywords {
			if strings.Contains(text, kw) {
				t, ok := u.apply(now, n)
				if !ok {
					return now
				}
				return t
			}
		}
	}

	return now
}

func stripToDate(text string) string {
	return notDateChars.ReplaceAllString(dateSeparators.Replace(text), "")
}

func isAbsoluteShape(text string) bool {
	return absoluteDate.MatchString(stripToDate(text))
}

// parseAbsolute recognises "YYYY.M.D", "YYYY-MM-DD", "YYYY年M月D日" and spaced
// variants such as "2024. 3. 5." and returns the start of that day.
func parseAbsolute(text string, loc *time.Location) (time.Time, bool) {
	m := absoluteDate.FindStringSubmatch(stripToDate(text))
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		// Feb 30 and friends normalise into the next month
		return time.Time{}, false
	}
	return t, true
}
