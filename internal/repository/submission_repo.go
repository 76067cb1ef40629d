package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	ListForStudent(ctx context.Context, classroomID, studentID string) ([]models.Submission, error)
	SubmittedAssignmentIDs(ctx context.Context, classroomID, studentID string) ([]string, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) ListForStudent(ctx context.Context, classroomID, studentID string) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) SubmittedAssignmentIDs(ctx context.Context, classroomID, studentID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Distinct("assignment_id").
		Pluck("assignment_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
