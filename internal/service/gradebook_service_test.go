package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

func newGradebook(t *testing.T, cache ReportCache, events EventPublisher) *gradebookService {
	t.Helper()
	store := newTestStore(t)
	svc := NewGradebookService(store, newValidator(), cache, 2*time.Minute, events, testLogger()).(*gradebookService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func homeworkOnly() grading.Settings {
	return models.DefaultGradeSettings()
}

func TestGradebookReportComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestRedis(t)
	events := &recordingPublisher{}
	svc := newGradebook(t, NewRedisReportCache(client, testLogger()), events)

	seedClassroom(t, svc.store, "c1", homeworkOnly())
	seedAssignment(t, svc.store, models.Assignment{ID: "a1", ClassroomID: "c1", Title: "Essay", Category: "Homework", Points: floatPointer(100), DueAt: "2020-01-01"})
	require.NoError(t, svc.store.Submissions.Create(ctx, &models.Submission{ID: "sub1", ClassroomID: "c1", AssignmentID: "a1", StudentID: "s1", CreatedAt: fixedNow}))

	_, err := svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(80), Status: "graded"}, teacher)
	require.NoError(t, err)

	report, err := svc.Report(ctx, "c1", "s1", student)
	require.NoError(t, err)
	value, ok := report.Percent.Value()
	require.True(t, ok)
	require.InDelta(t, 80, value, 1e-9)
	require.Equal(t, "B-", report.Letter)
	require.Equal(t, 0, report.MissingCount)
	require.Len(t, report.Assignments, 1)
	require.True(t, report.Assignments[0].Submitted)
	require.False(t, report.Assignments[0].Missing)
	require.Equal(t, fixedNow, report.ComputedAt)
	require.True(t, mini.Exists("gradebook:classroom:c1:v0:student:s1:v1"))

	// A write that bypasses the service is not visible until invalidation.
	stale := models.Grade{ID: "g-direct", ClassroomID: "c1", AssignmentID: "a1", StudentID: "s1", PointsEarned: floatPointer(50), Status: "graded"}
	require.NoError(t, svc.store.Grades.Upsert(ctx, &stale))
	cached, err := svc.Report(ctx, "c1", "s1", student)
	require.NoError(t, err)
	value, _ = cached.Percent.Value()
	require.InDelta(t, 80, value, 1e-9)

	_, err = svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(95)}, teacher)
	require.NoError(t, err)
	require.False(t, mini.Exists("gradebook:classroom:c1:v0:student:s1:v1"))

	fresh, err := svc.Report(ctx, "c1", "s1", teacher)
	require.NoError(t, err)
	value, _ = fresh.Percent.Value()
	require.InDelta(t, 95, value, 1e-9)
	require.Equal(t, "A", fresh.Letter)

	require.Equal(t, []string{EventGradeRecorded, EventGradeRecorded}, events.types())
}

// interleavingSubmissions runs during once, right after the first submission
// lookup, while a report is being computed.
type interleavingSubmissions struct {
	repository.SubmissionRepository
	once   sync.Once
	during func()
}

func (r *interleavingSubmissions) SubmittedAssignmentIDs(ctx context.Context, classroomID, studentID string) ([]string, error) {
	ids, err := r.SubmissionRepository.SubmittedAssignmentIDs(ctx, classroomID, studentID)
	r.once.Do(r.during)
	return ids, err
}

func TestGradebookReportDoesNotCacheOverConcurrentGrade(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	svc := newGradebook(t, NewRedisReportCache(client, testLogger()), nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())
	seedAssignment(t, svc.store, models.Assignment{ID: "a1", ClassroomID: "c1", Title: "Essay", Category: "Homework", Points: floatPointer(100), DueAt: "2020-01-01"})

	_, err := svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(40)}, teacher)
	require.NoError(t, err)

	submissions := &interleavingSubmissions{SubmissionRepository: svc.store.Submissions}
	submissions.during = func() {
		_, err := svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(95)}, teacher)
		require.NoError(t, err)
	}
	svc.store.Submissions = submissions

	first, err := svc.Report(ctx, "c1", "s1", student)
	require.NoError(t, err)
	value, _ := first.Percent.Value()
	require.InDelta(t, 40, value, 1e-9)

	second, err := svc.Report(ctx, "c1", "s1", student)
	require.NoError(t, err)
	value, ok := second.Percent.Value()
	require.True(t, ok)
	require.InDelta(t, 95, value, 1e-9)
	require.Equal(t, "A", second.Letter)
}

func TestGradebookReportAutoZeroAndMissing(t *testing.T) {
	svc := newGradebook(t, nil, nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())
	seedAssignment(t, svc.store, models.Assignment{ID: "a1", ClassroomID: "c1", Title: "Essay", Category: "Homework", Points: floatPointer(100), DueAt: "2020-01-01"})

	report, err := svc.Report(context.Background(), "c1", "s1", student)
	require.NoError(t, err)
	value, ok := report.Percent.Value()
	require.True(t, ok)
	require.Zero(t, value)
	require.Equal(t, 1, report.MissingCount)
	require.True(t, report.Assignments[0].Missing)
	require.True(t, report.Assignments[0].PastDue)
}

func TestGradebookReportWithoutDataEncodesNull(t *testing.T) {
	svc := newGradebook(t, nil, nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())
	seedAssignment(t, svc.store, models.Assignment{ID: "a1", ClassroomID: "c1", Title: "Future", DueAt: "2030-01-01"})

	report, err := svc.Report(context.Background(), "c1", "s1", student)
	require.NoError(t, err)
	require.True(t, report.Percent.IsNoData())
	require.Equal(t, grading.LetterNotAvailable, report.Letter)
	require.NotNil(t, report.Categories)

	payload, err := json.Marshal(report)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Contains(t, decoded, "percent")
	require.Nil(t, decoded["percent"])
}

func TestGradebookReportAccessControl(t *testing.T) {
	ctx := context.Background()
	svc := newGradebook(t, nil, nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())

	_, err := svc.Report(ctx, "c1", "s1", Actor{ID: "s2", Role: "student"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Report(ctx, "c1", "s1", Actor{ID: "t2", Role: "teacher"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Report(ctx, "c1", "s1", admin)
	require.NoError(t, err)

	_, err = svc.Report(ctx, "missing", "s1", admin)
	require.ErrorIs(t, err, ErrClassroomNotFound)
}

func TestGradebookUpdateSettings(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestRedis(t)
	events := &recordingPublisher{}
	svc := newGradebook(t, NewRedisReportCache(client, testLogger()), events)
	seedClassroom(t, svc.store, "c1", homeworkOnly())

	payload := dto.GradeSettingsRequest{
		Categories: []dto.GradeCategoryRequest{
			{Name: " Tests ", WeightPct: 60},
			{Name: "<b>Homework</b>", WeightPct: 40},
		},
		LatePenaltyPerDayPct: 10,
		MaxLatePenaltyPct:    50,
	}
	updated, err := svc.UpdateSettings(ctx, "c1", payload, teacher)
	require.NoError(t, err)
	require.Equal(t, []grading.Category{{Name: "Tests", WeightPct: 60}, {Name: "Homework", WeightPct: 40}}, updated.GradeSettings.Categories)
	require.Equal(t, 50, updated.GradeSettings.MaxLatePenaltyPct)

	version, err := mini.Get("gradebook:classroom:c1:version")
	require.NoError(t, err)
	require.Equal(t, "1", version)
	require.Equal(t, []string{EventGradeSettingsUpdated}, events.types())

	settings, err := svc.Settings(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, updated.GradeSettings, settings)
}

func TestGradebookUpdateSettingsValidation(t *testing.T) {
	ctx := context.Background()
	svc := newGradebook(t, nil, nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())

	_, err := svc.UpdateSettings(ctx, "c1", dto.GradeSettingsRequest{
		Categories: []dto.GradeCategoryRequest{{Name: "Homework", WeightPct: 150}},
	}, teacher)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.UpdateSettings(ctx, "c1", dto.GradeSettingsRequest{
		Categories: []dto.GradeCategoryRequest{{Name: "Homework", WeightPct: 50}, {Name: "homework ", WeightPct: 50}},
	}, teacher)
	require.ErrorIs(t, err, ErrDuplicateCategory)

	_, err = svc.UpdateSettings(ctx, "c1", dto.GradeSettingsRequest{
		Categories: []dto.GradeCategoryRequest{{Name: "Tests", WeightPct: 100}},
	}, Actor{ID: "t2", Role: "teacher"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGradebookRecordGradeNormalisesInput(t *testing.T) {
	ctx := context.Background()
	svc := newGradebook(t, nil, nil)
	seedClassroom(t, svc.store, "c1", homeworkOnly())
	seedAssignment(t, svc.store, models.Assignment{ID: "a1", ClassroomID: "c1", Title: "Essay"})

	grade, err := svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{
		Status:   "excused",
		Feedback: `<script>alert(1)</script>Well done`,
	}, teacher)
	require.NoError(t, err)
	require.Equal(t, "excused", grade.Status)
	require.Equal(t, "Well done", grade.Feedback)
	require.Equal(t, teacher.ID, grade.GradedBy)
	require.NotNil(t, grade.GradedAt)

	_, err = svc.RecordGrade(ctx, "c1", "nope", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(10)}, teacher)
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	_, err = svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(-1)}, teacher)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{Status: "lost"}, teacher)
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.RecordGrade(ctx, "c1", "a1", "s1", dto.GradeRecordRequest{PointsEarned: floatPointer(10)}, student)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGradebookReportTTLStopsAtNextDeadline(t *testing.T) {
	svc := newGradebook(t, nil, nil)
	assignments := []models.Assignment{
		{ID: "past", DueAt: "2020-01-01"},
		{ID: "soon", DueAt: fixedNow.Add(30 * time.Second).Format(time.RFC3339)},
		{ID: "undated"},
	}

	ttl := svc.reportTTL(assignments, fixedNow)
	require.Equal(t, 30*time.Second+time.Millisecond, ttl)
	require.Equal(t, 2*time.Minute, svc.reportTTL(assignments[:1], fixedNow))
}
