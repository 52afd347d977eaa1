// Package timeutil parses and formats the compact relative-time strings
// used by the reservation commands ("30m", "2h", "1h30m").
package timeutil

import (
    "fmt"
    "regexp"
    "strconv"
    "time"
)

var (
    minsPattern  = regexp.MustCompile(`([0-9]{1,2})m`)
    hoursPattern = regexp.MustCompile(`([0-9]{1,2})h`)
)

// ParseRelative resolves a relative-time string against now.  At least one
// of the hour/minute components must be present.
func ParseRelative(s string, now time.Time) (time.Time, error) {
    target := now
    matched := false
    if m := minsPattern.FindStringSubmatch(s); m != nil {
        n, _ := strconv.Atoi(m[1])
        target = target.Add(time.Duration(n) * time.Minute)
        matched = true
    }
    if m := hoursPattern.FindStringSubmatch(s); m != nil {
        n, _ := strconv.Atoi(m[1])
        target = target.Add(time.Duration(n) * time.Hour)
        matched = true
    }
    if !matched {
        return time.Time{}, fmt.Errorf("invalid relative time %q", s)
    }
    return target, nil
}

// FormatRelative renders the remaining time until target as a short
// human-readable string, e.g. "2 hours 5 mins".  Returns "" when the
// target has already passed.
func FormatRelative(target, now time.Time) string {
    diff := target.Add(time.Second).Sub(now)
    if diff < 0 {
        return ""
    }
    mins := int(diff.Minutes()) % 60
    hours := int(diff.Hours()) % 24

    var minText, hourText string
    if mins > 0 {
        unit := "mins"
        if mins == 1 {
            unit = "min"
        }
        minText = fmt.Sprintf("%d %s", mins, unit)
    }
    if hours > 0 {
        unit := "hours"
        if hours == 1 {
            unit = "hour"
        }
        hourText = fmt.Sprintf("%d %s", hours, unit)
    }
    switch {
    case hourText != "" && minText != "":
        return hourText + " " + minText
    case hourText != "":
        return hourText
    default:
        return minText
    }
}
