package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
)

// ClassroomRepository defines persistence operations for classrooms.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id string) (models.Classroom, error)
	List(ctx context.Context, teacherID string) ([]models.Classroom, error)
	UpdateSettings(ctx context.Context, id string, settings grading.Settings) (models.Classroom, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates a GORM-backed repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) GetByID(ctx context.Context, id string) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, "id = ?", id).Error; err != nil {
		return models.Classroom{}, translate(err)
	}
	return classroom, nil
}

// List returns classrooms ordered by name; an empty teacherID lists all.
func (r *classroomRepository) List(ctx context.Context, teacherID string) ([]models.Classroom, error) {
	query := r.db.WithContext(ctx).Model(&models.Classroom{})
	if teacherID != "" {
		query = query.Where("teacher_id = ?", teacherID)
	}

	var classrooms []models.Classroom
	if err := query.Order("name ASC").Find(&classrooms).Error; err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *classroomRepository) UpdateSettings(ctx context.Context, id string, settings grading.Settings) (models.Classroom, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("id = ?", id).
		Update("grade_settings", datatypes.NewJSONType(settings))
	if result.Error != nil {
		return models.Classroom{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Classroom{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
