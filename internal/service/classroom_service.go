package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

// ClassroomService manages classrooms and their owners.
type ClassroomService interface {
	Create(ctx context.Context, payload dto.ClassroomCreateRequest, actor Actor) (dto.ClassroomResponse, error)
	Get(ctx context.Context, id string) (dto.ClassroomResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error)
}

type classroomService struct {
	repo      repository.ClassroomRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClassroomService builds the classroom service.
func NewClassroomService(repo repository.ClassroomRepository, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "classroom_service").Logger(),
		now:       time.Now,
	}
}

func (s *classroomService) Create(ctx context.Context, payload dto.ClassroomCreateRequest, actor Actor) (dto.ClassroomResponse, error) {
	if !actor.IsStaff() {
		return dto.ClassroomResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	name := sanitizePlain(payload.Name)
	if name == "" {
		return dto.ClassroomResponse{}, ErrEmptyAfterSanitize
	}

	settings := models.DefaultGradeSettings()
	if payload.GradeSettings != nil {
		normalized, err := normalizeSettings(payload.GradeSettings.ToSettings())
		if err != nil {
			return dto.ClassroomResponse{}, err
		}
		settings = normalized
	}

	now := s.now().UTC()
	classroom := models.Classroom{
		ID:            uuid.NewString(),
		Name:          name,
		TeacherID:     actor.ID,
		GradeSettings: datatypes.NewJSONType(settings),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Str("classroom_id", classroom.ID).Str("teacher_id", actor.ID).Msg("classroom created")
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Get(ctx context.Context, id string) (dto.ClassroomResponse, error) {
	classroom, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ClassroomResponse{}, mapNotFound(err, ErrClassroomNotFound)
	}
	return dto.NewClassroomResponse(classroom), nil
}

// List returns the classrooms a teacher owns. Administrators and students see every classroom.
func (s *classroomService) List(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error) {
	teacherID := ""
	if actor.IsStaff() && !actor.IsAdmin() {
		teacherID = actor.ID
	}
	classrooms, err := s.repo.List(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewClassroomResponseSlice(classrooms), nil
}

// canManage reports whether actor may change the classroom's gradebook.
func canManage(classroom models.Classroom, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.IsStaff() && classroom.TeacherID == actor.ID
}

// normalizeSettings sanitises category names and rejects duplicates that
// would collapse into one aggregation bucket.
func normalizeSettings(settings grading.Settings) (grading.Settings, error) {
	categories := make([]grading.Category, 0, len(settings.Categories))
	seen := make(map[string]struct{}, len(settings.Categories))
	for _, category := range settings.Categories {
		name := sanitizePlain(category.Name)
		if name == "" {
			return grading.Settings{}, ErrEmptyAfterSanitize
		}
		key := grading.CategoryKey(name)
		if _, exists := seen[key]; exists {
			return grading.Settings{}, ErrDuplicateCategory
		}
		seen[key] = struct{}{}
		categories = append(categories, grading.Category{Name: strings.TrimSpace(name), WeightPct: category.WeightPct})
	}
	settings.Categories = categories
	return settings, nil
}
