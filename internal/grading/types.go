package grading

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Status is the normalised state of a recorded grade.
type Status string

const (
	StatusGraded  Status = "graded"
	StatusLate    Status = "late"
	StatusMissing Status = "missing"
	StatusExcused Status = "excused"
)

// DefaultCategory is used for assignments without a category.
const DefaultCategory = "Homework"

// Category is a weighted grouping configured by the teacher.
type Category struct {
	Name      string `json:"name"`
	WeightPct int    `json:"weightPct"`
}

// Settings holds the classroom grading policy.
type Settings struct {
	Categories           []Category `json:"categories"`
	LatePenaltyPerDayPct int        `json:"latePenaltyPerDayPct"`
	MaxLatePenaltyPct    int        `json:"maxLatePenaltyPct"`
}

// Assignment is the subset of an assignment the aggregator needs.
// Points and DueAt are kept raw and normalised on every call.
type Assignment struct {
	ID       string
	Category string
	Points   *float64
	DueAt    string
}

// Grade is a student's recorded result for a single assignment.
type Grade struct {
	AssignmentID     string
	PointsEarned     *float64
	Status           string
	LateDaysOverride *int
}

// Percent is either a weighted percentage or the absence of any applicable work.
// The zero value means no data.
type Percent struct {
	value float64
	valid bool
}

// NoData reports that no assignment contributed to the grade.
func NoData() Percent {
	return Percent{}
}

// PercentOf wraps a computed percentage.
func PercentOf(value float64) Percent {
	return Percent{value: value, valid: true}
}

// Value returns the percentage and whether it is present.
func (p Percent) Value() (float64, bool) {
	return p.value, p.valid
}

// IsNoData reports whether the percentage is absent.
func (p Percent) IsNoData() bool {
	return !p.valid
}

// Letter maps the percentage onto the letter scale, "N/A" without data.
func (p Percent) Letter() string {
	if !p.valid {
		return LetterNotAvailable
	}
	return LetterFromPercent(p.value)
}

// MarshalJSON encodes a missing percentage as null.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.valid || math.IsNaN(p.value) || math.IsInf(p.value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(p.value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts null or a number.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = NoData()
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*p = PercentOf(value)
	return nil
}

// CategoryResult is the per-category view of a student's grade.
type CategoryResult struct {
	Key                string  `json:"key"`
	Name               string  `json:"name"`
	WeightPct          float64 `json:"weightPct"`
	EffectiveWeightPct float64 `json:"effectiveWeightPct"`
	Earned             float64 `json:"earned"`
	Possible           float64 `json:"possible"`
	Percent            Percent `json:"percent"`
}

// AssignmentResult is one assignment as the aggregator saw it. Status and
// PointsEarned are empty when the student has no grade record.
type AssignmentResult struct {
	AssignmentID   string   `json:"assignmentId"`
	Category       string   `json:"category"`
	PointsPossible int      `json:"pointsPossible"`
	PointsEarned   *float64 `json:"pointsEarned"`
	Status         Status   `json:"status,omitempty"`
	PastDue        bool     `json:"pastDue"`
	Submitted      bool     `json:"submitted"`
	Missing        bool     `json:"missing"`
}

// Report bundles every derived view of a student's grades.
type Report struct {
	Percent      Percent            `json:"percent"`
	Letter       string             `json:"letter"`
	MissingCount int                `json:"missingCount"`
	Categories   []CategoryResult   `json:"categories"`
	Assignments  []AssignmentResult `json:"assignments"`
}
