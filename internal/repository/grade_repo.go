package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// GradeRepository persists grade records. A student has at most one grade per
// assignment; Upsert replaces the existing record.
type GradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	Get(ctx context.Context, assignmentID, studentID string) (models.Grade, error)
	ListForStudent(ctx context.Context, classroomID, studentID string) ([]models.Grade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates a GORM-backed repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"points_earned", "status", "late_days_override", "feedback", "graded_by", "graded_at", "updated_at",
		}),
	}).Create(grade).Error
	if err != nil {
		return err
	}

	stored, err := r.Get(ctx, grade.AssignmentID, grade.StudentID)
	if err != nil {
		return err
	}
	*grade = stored
	return nil
}

func (r *gradeRepository) Get(ctx context.Context, assignmentID, studentID string) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&grade).Error; err != nil {
		return models.Grade{}, translate(err)
	}
	return grade, nil
}

func (r *gradeRepository) ListForStudent(ctx context.Context, classroomID, studentID string) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Order("created_at ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}
