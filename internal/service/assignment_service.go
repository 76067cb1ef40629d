package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

// AssignmentService exposes assignment use cases within a classroom.
type AssignmentService interface {
	List(ctx context.Context, classroomID string) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, classroomID, id string) (dto.AssignmentResponse, error)
	Create(ctx context.Context, classroomID string, payload dto.AssignmentCreateRequest, actor Actor) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, classroomID, id string, actor Actor) error
}

type assignmentService struct {
	classrooms repository.ClassroomRepository
	repo       repository.AssignmentRepository
	validator  *validator.Validate
	cache      ReportCache
	events     EventPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(classrooms repository.ClassroomRepository, repo repository.AssignmentRepository, validate *validator.Validate, cache ReportCache, events EventPublisher, logger zerolog.Logger) AssignmentService {
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = NopPublisher()
	}
	return &assignmentService{
		classrooms: classrooms,
		repo:       repo,
		validator:  validate,
		cache:      cache,
		events:     events,
		logger:     logger.With().Str("component", "assignment_service").Logger(),
		now:        time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, classroomID string) ([]dto.AssignmentResponse, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		return nil, mapNotFound(err, ErrClassroomNotFound)
	}

	assignments, err := s.repo.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponseSlice(assignments, s.now()), nil
}

func (s *assignmentService) Get(ctx context.Context, classroomID, id string) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, classroomID, id)
	if err != nil {
		return dto.AssignmentResponse{}, mapNotFound(err, ErrAssignmentNotFound)
	}
	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Create(ctx context.Context, classroomID string, payload dto.AssignmentCreateRequest, actor Actor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return dto.AssignmentResponse{}, mapNotFound(err, ErrClassroomNotFound)
	}
	if !canManage(classroom, actor) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	title := sanitizePlain(payload.Title)
	if title == "" {
		return dto.AssignmentResponse{}, ErrEmptyAfterSanitize
	}

	dueAt := strings.TrimSpace(payload.DueAt)
	if dueAt != "" {
		if _, ok := grading.ParseDueAt(dueAt); !ok {
			return dto.AssignmentResponse{}, ErrInvalidDueAt
		}
	}

	now := s.now().UTC()
	assignment := models.Assignment{
		ID:          uuid.NewString(),
		ClassroomID: classroom.ID,
		Title:       title,
		Description: sanitizeRich(payload.Description),
		Category:    sanitizePlain(payload.Category),
		Points:      payload.Points,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.cache.InvalidateClassroom(ctx, classroom.ID)
	s.events.Publish(ctx, Event{
		Type:         EventAssignmentCreated,
		ClassroomID:  classroom.ID,
		AssignmentID: assignment.ID,
		ActorID:      actor.ID,
		OccurredAt:   now,
	})

	s.logger.Info().Str("assignment_id", assignment.ID).Str("classroom_id", classroom.ID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment, now), nil
}

func (s *assignmentService) Delete(ctx context.Context, classroomID, id string, actor Actor) error {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return mapNotFound(err, ErrClassroomNotFound)
	}
	if !canManage(classroom, actor) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, classroomID, id); err != nil {
		return mapNotFound(err, ErrAssignmentNotFound)
	}

	s.cache.InvalidateClassroom(ctx, classroomID)
	s.events.Publish(ctx, Event{
		Type:         EventAssignmentDeleted,
		ClassroomID:  classroomID,
		AssignmentID: id,
		ActorID:      actor.ID,
		OccurredAt:   s.now().UTC(),
	})

	s.logger.Info().Str("assignment_id", id).Str("classroom_id", classroomID).Msg("assignment deleted")
	return nil
}
