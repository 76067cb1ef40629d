package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/observability"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

// GradebookService computes student grade reports and records grades.
type GradebookService interface {
	Report(ctx context.Context, classroomID, studentID string, actor Actor) (dto.GradeReportResponse, error)
	Settings(ctx context.Context, classroomID string) (grading.Settings, error)
	UpdateSettings(ctx context.Context, classroomID string, payload dto.GradeSettingsRequest, actor Actor) (dto.ClassroomResponse, error)
	RecordGrade(ctx context.Context, classroomID, assignmentID, studentID string, payload dto.GradeRecordRequest, actor Actor) (dto.GradeResponse, error)
}

type gradebookService struct {
	store     repository.Store
	validator *validator.Validate
	cache     ReportCache
	cacheTTL  time.Duration
	events    EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGradebookService wires the gradebook to a storage backend. cache and
// events may be nil.
func NewGradebookService(store repository.Store, validate *validator.Validate, cache ReportCache, ttl time.Duration, events EventPublisher, logger zerolog.Logger) GradebookService {
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = NopPublisher()
	}
	return &gradebookService{
		store:     store,
		validator: validate,
		cache:     cache,
		cacheTTL:  ttl,
		events:    events,
		logger:    logger.With().Str("component", "gradebook_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/school-portal-api/internal/service/gradebook"),
		now:       time.Now,
	}
}

func (s *gradebookService) Report(ctx context.Context, classroomID, studentID string, actor Actor) (dto.GradeReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.report")
	span.SetAttributes(
		attribute.String("gradebook.classroom_id", classroomID),
		attribute.String("gradebook.student_id", studentID),
	)
	defer span.End()

	classroom, err := s.store.Classrooms.GetByID(ctx, classroomID)
	if err != nil {
		err = mapNotFound(err, ErrClassroomNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classroom_lookup_failed")
		return dto.GradeReportResponse{}, err
	}
	if actor.ID != studentID && !canManage(classroom, actor) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.GradeReportResponse{}, ErrForbidden
	}

	// The stamp is taken before the inputs are read so a concurrent write
	// leaves this computation stored under a key nobody reads.
	cached, stamp, ok := s.cache.Get(ctx, classroomID, studentID)
	if ok {
		observability.GradeReports().WithLabelValues("cache").Inc()
		span.SetAttributes(attribute.Bool("gradebook.cache_hit", true))
		return cached, nil
	}

	start := time.Now()
	assignments, err := s.store.Assignments.ListByClassroom(ctx, classroomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignments_lookup_failed")
		return dto.GradeReportResponse{}, err
	}
	grades, err := s.store.Grades.ListForStudent(ctx, classroomID, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grades_lookup_failed")
		return dto.GradeReportResponse{}, err
	}
	submitted, err := s.store.Submissions.SubmittedAssignmentIDs(ctx, classroomID, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submissions_lookup_failed")
		return dto.GradeReportResponse{}, err
	}

	now := s.now().UTC()
	report := buildReport(classroom, studentID, assignments, grades, submitted, now)
	observability.GradeComputation().Observe(time.Since(start).Seconds())
	observability.GradeReports().WithLabelValues("computed").Inc()

	if percent, ok := report.Percent.Value(); ok {
		span.SetAttributes(attribute.Float64("gradebook.percent", percent))
	}
	span.SetAttributes(attribute.Int("gradebook.missing_count", report.MissingCount))

	s.cache.Set(ctx, classroomID, studentID, stamp, report, s.reportTTL(assignments, now))
	return report, nil
}

// reportTTL bounds the cache lifetime by the next deadline, since crossing a
// due date changes the report without any write.
func (s *gradebookService) reportTTL(assignments []models.Assignment, now time.Time) time.Duration {
	ttl := s.cacheTTL
	for _, assignment := range assignments {
		due, ok := grading.ParseDueAt(assignment.DueAt)
		if !ok || due.Before(now) {
			continue
		}
		if until := due.Sub(now) + time.Millisecond; until < ttl {
			ttl = until
		}
	}
	return ttl
}

func buildReport(classroom models.Classroom, studentID string, assignments []models.Assignment, grades []models.Grade, submitted []string, now time.Time) dto.GradeReportResponse {
	inputs := make([]grading.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		inputs = append(inputs, assignment.ToGrading())
	}
	gradeInputs := make([]grading.Grade, 0, len(grades))
	for _, grade := range grades {
		gradeInputs = append(gradeInputs, grade.ToGrading())
	}

	summary := grading.Summarize(classroom.Settings(), inputs, gradeInputs, submitted, now)

	rows := make([]dto.AssignmentGradeView, 0, len(summary.Assignments))
	for i, result := range summary.Assignments {
		rows = append(rows, dto.AssignmentGradeView{
			AssignmentID:   result.AssignmentID,
			Title:          assignments[i].Title,
			Category:       result.Category,
			PointsPossible: result.PointsPossible,
			PointsEarned:   result.PointsEarned,
			Status:         string(result.Status),
			DueAt:          assignments[i].DueAt,
			PastDue:        result.PastDue,
			Submitted:      result.Submitted,
			Missing:        result.Missing,
		})
	}

	categories := summary.Categories
	if categories == nil {
		categories = []grading.CategoryResult{}
	}
	return dto.GradeReportResponse{
		ClassroomID:  classroom.ID,
		StudentID:    studentID,
		Percent:      summary.Percent,
		Letter:       summary.Letter,
		MissingCount: summary.MissingCount,
		Categories:   categories,
		Assignments:  rows,
		ComputedAt:   now,
	}
}

func (s *gradebookService) Settings(ctx context.Context, classroomID string) (grading.Settings, error) {
	classroom, err := s.store.Classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return grading.Settings{}, mapNotFound(err, ErrClassroomNotFound)
	}
	settings := classroom.Settings()
	if settings.Categories == nil {
		settings.Categories = []grading.Category{}
	}
	return settings, nil
}

func (s *gradebookService) UpdateSettings(ctx context.Context, classroomID string, payload dto.GradeSettingsRequest, actor Actor) (dto.ClassroomResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.update_settings")
	span.SetAttributes(attribute.String("gradebook.classroom_id", classroomID))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ClassroomResponse{}, err
	}
	settings, err := normalizeSettings(payload.ToSettings())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.store.Classrooms.GetByID(ctx, classroomID)
	if err != nil {
		err = mapNotFound(err, ErrClassroomNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classroom_lookup_failed")
		return dto.ClassroomResponse{}, err
	}
	if !canManage(classroom, actor) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ClassroomResponse{}, ErrForbidden
	}

	updated, err := s.store.Classrooms.UpdateSettings(ctx, classroomID, settings)
	if err != nil {
		err = mapNotFound(err, ErrClassroomNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "settings_update_failed")
		return dto.ClassroomResponse{}, err
	}

	s.cache.InvalidateClassroom(ctx, classroomID)
	s.events.Publish(ctx, Event{
		Type:        EventGradeSettingsUpdated,
		ClassroomID: classroomID,
		ActorID:     actor.ID,
		OccurredAt:  s.now().UTC(),
	})

	s.logger.Info().Str("classroom_id", classroomID).Int("categories", len(settings.Categories)).Msg("grade settings updated")
	return dto.NewClassroomResponse(updated), nil
}

func (s *gradebookService) RecordGrade(ctx context.Context, classroomID, assignmentID, studentID string, payload dto.GradeRecordRequest, actor Actor) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.record_grade")
	span.SetAttributes(
		attribute.String("gradebook.classroom_id", classroomID),
		attribute.String("gradebook.assignment_id", assignmentID),
		attribute.String("gradebook.student_id", studentID),
		attribute.String("gradebook.actor_id", actor.ID),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeResponse{}, err
	}

	classroom, err := s.store.Classrooms.GetByID(ctx, classroomID)
	if err != nil {
		err = mapNotFound(err, ErrClassroomNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classroom_lookup_failed")
		return dto.GradeResponse{}, err
	}
	if !canManage(classroom, actor) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.GradeResponse{}, ErrForbidden
	}
	if _, err := s.store.Assignments.GetByID(ctx, classroomID, assignmentID); err != nil {
		err = mapNotFound(err, ErrAssignmentNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.GradeResponse{}, err
	}

	status := grading.NormalizeStatus(payload.Status)

	now := s.now().UTC()
	grade := models.Grade{
		ID:               uuid.NewString(),
		ClassroomID:      classroomID,
		AssignmentID:     assignmentID,
		StudentID:        studentID,
		PointsEarned:     payload.PointsEarned,
		Status:           string(status),
		LateDaysOverride: payload.LateDaysOverride,
		Feedback:         sanitizeRich(payload.Feedback),
		GradedBy:         actor.ID,
		GradedAt:         &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Grades.Upsert(ctx, &grade); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_upsert_failed")
		return dto.GradeResponse{}, err
	}

	s.cache.InvalidateStudent(ctx, classroomID, studentID)
	s.events.Publish(ctx, Event{
		Type:         EventGradeRecorded,
		ClassroomID:  classroomID,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		ActorID:      actor.ID,
		OccurredAt:   now,
	})

	span.SetStatus(codes.Ok, "recorded")
	s.logger.Info().
		Str("classroom_id", classroomID).
		Str("assignment_id", assignmentID).
		Str("student_id", studentID).
		Str("status", grade.Status).
		Msg("grade recorded")
	return dto.NewGradeResponse(grade), nil
}
