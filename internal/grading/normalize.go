package grading

import (
	"math"
	"strings"
	"time"
)

const (
	defaultPoints = 100
	minPoints     = 1
	maxPoints     = 100
	maxLateDays   = 365
)

var dueAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Clamp bounds n to [min, max].
func Clamp(n, min, max float64) float64 {
	return math.Min(math.Max(n, min), max)
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// ParsePoints resolves the maximum score of an assignment. Missing, non-finite
// or out of range values fall back to 100.
func ParsePoints(points *float64) int {
	if points == nil {
		return defaultPoints
	}
	p := *points
	if !isFinite(p) || p < minPoints || p > maxPoints {
		return defaultPoints
	}
	return int(math.Round(p))
}

// NormalizeStatus maps free-form status input onto a known Status.
func NormalizeStatus(status string) Status {
	switch s := Status(strings.ToLower(strings.TrimSpace(status))); s {
	case StatusGraded, StatusLate, StatusMissing, StatusExcused:
		return s
	default:
		return StatusGraded
	}
}

// ParseDueAt parses a due timestamp. Values without a zone are read as UTC.
func ParseDueAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dueAtLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// IsPastDue reports whether dueAt parses and lies strictly before now.
func IsPastDue(dueAt string, now time.Time) bool {
	due, ok := ParseDueAt(dueAt)
	if !ok {
		return false
	}
	return due.Before(now)
}

// LateDays returns the clamped override, zero when absent.
func LateDays(override *int) int {
	if override == nil {
		return 0
	}
	return int(Clamp(float64(*override), 0, maxLateDays))
}

// CategoryName returns the display name of a category, defaulting blanks.
func CategoryName(category string) string {
	name := strings.TrimSpace(category)
	if name == "" {
		return DefaultCategory
	}
	return name
}

// CategoryKey is the case-insensitive lookup key for a category name.
func CategoryKey(category string) string {
	return strings.ToLower(CategoryName(category))
}

func hasPoints(grade Grade) bool {
	return grade.PointsEarned != nil && isFinite(*grade.PointsEarned)
}

func applyLatePenalty(earned, possible float64, lateDays int, perDayPct, maxPct float64) float64 {
	if lateDays <= 0 || perDayPct <= 0 {
		return earned
	}
	penaltyPct := Clamp(float64(lateDays)*perDayPct, 0, maxPct)
	return Clamp(earned*(1-penaltyPct/100), 0, possible)
}
