package timeutil

import (
    "testing"
    "time"
)

func TestParseRelative(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    cases := []struct {
        in   string
        want time.Duration
    }{
        {"30m", 30 * time.Minute},
        {"2h", 2 * time.Hour},
        {"1h30m", 90 * time.Minute},
        {"5m2h", 2*time.Hour + 5*time.Minute},
    }
    for _, tc := range cases {
        got, err := ParseRelative(tc.in, now)
        if err != nil {
            t.Fatalf("ParseRelative(%q): %v", tc.in, err)
        }
        if got.Sub(now) != tc.want {
            t.Fatalf("ParseRelative(%q) = +%s, want +%s", tc.in, got.Sub(now), tc.want)
        }
    }

    for _, in := range []string{"", "soon", "h", "120"} {
        if _, err := ParseRelative(in, now); err == nil {
            t.Fatalf("expected error for %q", in)
        }
    }
}

func TestFormatRelative(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    cases := []struct {
        target time.Time
        want   string
    }{
        {now.Add(30 * time.Minute), "30 mins"},
        {now.Add(time.Minute), "1 min"},
        {now.Add(2 * time.Hour), "2 hours"},
        {now.Add(time.Hour + 5*time.Minute), "1 hour 5 mins"},
        {now.Add(-time.Minute), ""},
    }
    for _, tc := range cases {
        if got := FormatRelative(tc.target, now); got != tc.want {
            t.Fatalf("FormatRelative(+%s) = %q, want %q", tc.target.Sub(now), got, tc.want)
        }
    }
}
