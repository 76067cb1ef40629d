package grading

import "math"

// LetterNotAvailable is returned for percentages that cannot be graded.
const LetterNotAvailable = "N/A"

var letterScale = []struct {
	min    float64
	letter string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// LetterFromPercent maps a percentage onto the A+ to F scale.
func LetterFromPercent(percent float64) string {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return LetterNotAvailable
	}
	for _, step := range letterScale {
		if percent >= step.min {
			return step.letter
		}
	}
	return "F"
}
