package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, classroomID, id string) (models.Assignment, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]models.Assignment, error)
	Delete(ctx context.Context, classroomID, id string) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, classroomID, id string) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		First(&assignment, "id = ?", id).Error; err != nil {
		return models.Assignment{}, translate(err)
	}
	return assignment, nil
}

func (r *assignmentRepository) ListByClassroom(ctx context.Context, classroomID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, classroomID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("classroom_id = ?", classroomID).Delete(&models.Assignment{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Grade{}).Error; err != nil {
			return err
		}
		return tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error
	})
}
