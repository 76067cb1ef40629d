package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           string    `json:"id"`
	ClassroomID  string    `json:"classroomId"`
	AssignmentID string    `json:"assignmentId"`
	StudentID    string    `json:"studentId"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		ClassroomID:  model.ClassroomID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		FileName:     model.FileName,
		FileURL:      model.FileURL,
		ContentType:  model.ContentType,
		Size:         model.Size,
		CreatedAt:    model.CreatedAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionResponse(item))
	}
	return responses
}
