package grading

import (
	"strings"
	"time"
)

type categoryTally struct {
	key      string
	name     string
	weight   float64
	earned   float64
	possible float64
}

// ledger accumulates points per category while remembering the order in
// which categories were first seen, so sums are always taken in the same order.
type ledger struct {
	order []*categoryTally
	byKey map[string]*categoryTally
}

func newLedger(settings Settings) *ledger {
	l := &ledger{byKey: make(map[string]*categoryTally, len(settings.Categories))}
	for _, category := range settings.Categories {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		weight := Clamp(float64(category.WeightPct), 0, 100)
		if existing, ok := l.byKey[key]; ok {
			existing.weight = weight
			continue
		}
		tally := &categoryTally{key: key, name: name, weight: weight}
		l.byKey[key] = tally
		l.order = append(l.order, tally)
	}
	return l
}

func (l *ledger) add(category string, earned, possible float64) {
	name := CategoryName(category)
	key := strings.ToLower(name)
	tally, ok := l.byKey[key]
	if !ok {
		tally = &categoryTally{key: key, name: name}
		l.byKey[key] = tally
		l.order = append(l.order, tally)
	}
	tally.earned += earned
	tally.possible += possible
}

// lookup indexes a student's grades and submissions by assignment id.
// Duplicate grades resolve to the last one.
type lookup struct {
	grades    map[string]Grade
	submitted map[string]struct{}
}

func newLookup(grades []Grade, submitted []string) lookup {
	lk := lookup{
		grades:    make(map[string]Grade, len(grades)),
		submitted: make(map[string]struct{}, len(submitted)),
	}
	for _, grade := range grades {
		lk.grades[grade.AssignmentID] = grade
	}
	for _, id := range submitted {
		lk.submitted[id] = struct{}{}
	}
	return lk
}

func (lk lookup) grade(assignmentID string) (Grade, bool) {
	grade, ok := lk.grades[assignmentID]
	return grade, ok
}

func (lk lookup) hasSubmitted(assignmentID string) bool {
	_, ok := lk.submitted[assignmentID]
	return ok
}

func (lk lookup) isMissing(assignment Assignment, now time.Time) bool {
	var grade *Grade
	if g, ok := lk.grade(assignment.ID); ok {
		grade = &g
	}
	return IsMissing(assignment, grade, lk.hasSubmitted(assignment.ID), now)
}

func tally(settings Settings, assignments []Assignment, lk lookup, now time.Time) *ledger {
	perDayPct := Clamp(float64(settings.LatePenaltyPerDayPct), 0, 100)
	maxPct := Clamp(float64(settings.MaxLatePenaltyPct), 0, 100)

	l := newLedger(settings)
	for _, assignment := range assignments {
		possible := float64(ParsePoints(assignment.Points))
		grade, graded := lk.grade(assignment.ID)

		var status Status
		if graded {
			status = NormalizeStatus(grade.Status)
			if status == StatusExcused {
				continue
			}
		}

		var earned float64
		switch {
		case graded && status == StatusMissing:
			earned = 0
		case graded && hasPoints(grade):
			earned = Clamp(*grade.PointsEarned, 0, possible)
		default:
			if !IsPastDue(assignment.DueAt, now) || lk.hasSubmitted(assignment.ID) {
				continue
			}
			earned = 0
		}

		if graded {
			earned = applyLatePenalty(earned, possible, LateDays(grade.LateDaysOverride), perDayPct, maxPct)
		}

		l.add(assignment.Category, earned, possible)
	}
	return l
}

// weigh turns category tallies into the overall percentage and the breakdown.
func (l *ledger) weigh() (Percent, []CategoryResult) {
	results := make([]CategoryResult, 0, len(l.order))
	contributing := make([]int, 0, len(l.order))
	weightSum := 0.0
	for _, t := range l.order {
		result := CategoryResult{
			Key:       t.key,
			Name:      t.name,
			WeightPct: t.weight,
			Earned:    t.earned,
			Possible:  t.possible,
		}
		if t.possible > 0 {
			result.Percent = PercentOf(100 * t.earned / t.possible)
			contributing = append(contributing, len(results))
			weightSum += t.weight
		}
		results = append(results, result)
	}

	if len(contributing) == 0 {
		return NoData(), results
	}

	equalWeights := weightSum <= 0
	if equalWeights {
		weightSum = 100
	}

	total := 0.0
	for _, idx := range contributing {
		weight := results[idx].WeightPct
		if equalWeights {
			weight = 100 / float64(len(contributing))
		}
		pct, _ := results[idx].Percent.Value()
		share := weight / weightSum
		results[idx].EffectiveWeightPct = share * 100
		total += pct * share
	}

	return PercentOf(Clamp(total, 0, 100)), results
}

// CurrentGradePercent computes the weighted grade as of now. Excused work is
// ignored, explicit missing work and unsubmitted past-due work count as zero,
// and work that is neither graded nor overdue does not count yet.
func CurrentGradePercent(settings Settings, assignments []Assignment, grades []Grade, submitted []string, now time.Time) Percent {
	percent, _ := tally(settings, assignments, newLookup(grades, submitted), now).weigh()
	return percent
}

// IsMissing reports whether a single assignment counts as missing. grade is
// nil when the student has no record for the assignment.
func IsMissing(assignment Assignment, grade *Grade, submitted bool, now time.Time) bool {
	if !IsPastDue(assignment.DueAt, now) {
		return false
	}
	if grade != nil {
		switch NormalizeStatus(grade.Status) {
		case StatusExcused:
			return false
		case StatusMissing:
			return true
		}
	}
	if submitted {
		return false
	}
	return grade == nil || !hasPoints(*grade)
}

// MissingAssignmentCount counts past-due assignments that were neither
// submitted, graded nor excused, plus those explicitly marked missing.
func MissingAssignmentCount(assignments []Assignment, grades []Grade, submitted []string, now time.Time) int {
	lk := newLookup(grades, submitted)
	missing := 0
	for _, assignment := range assignments {
		if lk.isMissing(assignment, now) {
			missing++
		}
	}
	return missing
}

// Summarize computes the percentage, letter, missing count, per-category
// breakdown and per-assignment rows from a single index of the inputs. Rows
// follow the order of assignments.
func Summarize(settings Settings, assignments []Assignment, grades []Grade, submitted []string, now time.Time) Report {
	lk := newLookup(grades, submitted)
	percent, categories := tally(settings, assignments, lk, now).weigh()

	rows := make([]AssignmentResult, 0, len(assignments))
	missing := 0
	for _, assignment := range assignments {
		row := AssignmentResult{
			AssignmentID:   assignment.ID,
			Category:       CategoryName(assignment.Category),
			PointsPossible: ParsePoints(assignment.Points),
			PastDue:        IsPastDue(assignment.DueAt, now),
			Submitted:      lk.hasSubmitted(assignment.ID),
			Missing:        lk.isMissing(assignment, now),
		}
		if grade, ok := lk.grade(assignment.ID); ok {
			row.PointsEarned = grade.PointsEarned
			row.Status = NormalizeStatus(grade.Status)
		}
		if row.Missing {
			missing++
		}
		rows = append(rows, row)
	}

	return Report{
		Percent:      percent,
		Letter:       percent.Letter(),
		MissingCount: missing,
		Categories:   categories,
		Assignments:  rows,
	}
}
