package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
)

// AssignmentCreateRequest describes a new assignment. Points and DueAt are optional.
type AssignmentCreateRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=10000"`
	Category    string   `json:"category" validate:"max=100"`
	Points      *float64 `json:"points" validate:"omitempty,gte=1,lte=100"`
	DueAt       string   `json:"dueAt" validate:"max=64"`
}

// AssignmentResponse is the API view of an assignment.
type AssignmentResponse struct {
	ID             string    `json:"id"`
	ClassroomID    string    `json:"classroomId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	PointsPossible int       `json:"pointsPossible"`
	DueAt          string    `json:"dueAt,omitempty"`
	PastDue        bool      `json:"pastDue"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewAssignmentResponse converts an Assignment model into a DTO as of now.
func NewAssignmentResponse(model models.Assignment, now time.Time) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		ClassroomID:    model.ClassroomID,
		Title:          model.Title,
		Description:    model.Description,
		Category:       grading.CategoryName(model.Category),
		PointsPossible: grading.ParsePoints(model.Points),
		DueAt:          model.DueAt,
		PastDue:        model.IsPastDue(now),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(items []models.Assignment, now time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssignmentResponse(item, now))
	}
	return responses
}
