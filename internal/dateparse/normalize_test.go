package dateparse

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 30, 45, 500_000_000, time.UTC)
	base := now.Truncate(time.Second)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"empty", "", base},
		{"whitespace", "   ", base},
		{"korean days", "3일 전", base.Add(-72 * time.Hour)},
		{"english hours", "2 hours ago", base.Add(-2 * time.Hour)},
		{"english minute", "1 minute ago", base.Add(-time.Minute)},
		{"korean seconds", "30초 전", base.Add(-30 * time.Second)},
		{"korean weeks", "2주 전", base.Add(-14 * 24 * time.Hour)},
		{"prefixed weeks", "streamed 2 weeks ago", base.Add(-14 * 24 * time.Hour)},
		{"korean months", "3개월 전", time.Date(2025, 3, 15, 12, 30, 45, 0, time.UTC)},
		{"korean month short", "1달 전", time.Date(2025, 5, 15, 12, 30, 45, 0, time.UTC)},
		{"korean year", "1년 전", time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)},
		{"implicit magnitude", "a year ago", time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)},
		{"japanese years", "5年前", time.Date(2020, 6, 15, 12, 30, 45, 0, time.UTC)},
		{"japanese hours", "3時間前", base.Add(-3 * time.Hour)},
		{"japanese months", "2か月前", time.Date(2025, 4, 15, 12, 30, 45, 0, time.UTC)},
		{"yesterday", "yesterday", base.Add(-24 * time.Hour)},
		{"first unit keyword wins", "일주일 전", base.Add(-24 * time.Hour)},
		{"dotted absolute", "2024. 3. 5.", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"iso absolute", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"japanese absolute", "2024年3月5日", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"absolute edited suffix", "2024.3.5 (edited)", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"invalid month", "2024.13.01", base},
		{"invalid day", "2023.02.30", base},
		{"no unit", "방금 전", base},
		{"unknown text", "sometime", base},
		{"magnitude overflow", "99999999999999999999 days ago", base},
		{"duration overflow", "999999999999 hours ago", base},
		{"calendar overflow", "9999999 years ago", base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, now)
			if !got.Equal(tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Nanosecond() != 0 {
				t.Errorf("Normalize(%q) kept sub-second precision: %v", tt.in, got)
			}
		})
	}
}

func TestNormalize_PreservesLocation(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	now := time.Date(2025, 1, 10, 1, 0, 0, 0, kst)

	got := Normalize("2025-01-09", now)
	want := time.Date(2025, 1, 9, 0, 0, 0, 0, kst)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got.Location() != kst {
		t.Errorf("Expected location KST, got %v", got.Location())
	}
}

func TestNormalize_NeverAfterNow(t *testing.T) {
	now := time.Now()
	inputs := []string{"1초 전", "5분 전", "1시간 전", "2일 전", "1주 전", "1개월 전", "1년 전", "garbage", ""}
	for _, in := range inputs {
		if got := Normalize(in, now); got.After(now) {
			t.Errorf("Normalize(%q) = %v is after now %v", in, got, now)
		}
	}
}
