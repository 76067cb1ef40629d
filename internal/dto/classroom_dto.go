package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
)

// GradeCategoryRequest is a single weighted category entered by a teacher.
type GradeCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	WeightPct int    `json:"weightPct" validate:"gte=0,lte=100"`
}

// GradeSettingsRequest replaces the grading policy of a classroom.
type GradeSettingsRequest struct {
	Categories           []GradeCategoryRequest `json:"categories" validate:"max=20,dive"`
	LatePenaltyPerDayPct int                    `json:"latePenaltyPerDayPct" validate:"gte=0,lte=100"`
	MaxLatePenaltyPct    int                    `json:"maxLatePenaltyPct" validate:"gte=0,lte=100"`
}

// ToSettings converts the request into the aggregator policy.
func (r GradeSettingsRequest) ToSettings() grading.Settings {
	categories := make([]grading.Category, 0, len(r.Categories))
	for _, category := range r.Categories {
		categories = append(categories, grading.Category{Name: category.Name, WeightPct: category.WeightPct})
	}
	return grading.Settings{
		Categories:           categories,
		LatePenaltyPerDayPct: r.LatePenaltyPerDayPct,
		MaxLatePenaltyPct:    r.MaxLatePenaltyPct,
	}
}

// ClassroomCreateRequest creates a classroom owned by the caller.
type ClassroomCreateRequest struct {
	Name          string                `json:"name" validate:"required,min=2,max=255"`
	GradeSettings *GradeSettingsRequest `json:"gradeSettings" validate:"omitempty"`
}

// ClassroomResponse is returned to API clients when viewing classrooms.
type ClassroomResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	TeacherID     string           `json:"teacherId"`
	GradeSettings grading.Settings `json:"gradeSettings"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewClassroomResponse converts a Classroom model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	settings := model.Settings()
	if settings.Categories == nil {
		settings.Categories = []grading.Category{}
	}
	return ClassroomResponse{
		ID:            model.ID,
		Name:          model.Name,
		TeacherID:     model.TeacherID,
		GradeSettings: settings,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewClassroomResponseSlice converts classroom models into DTOs.
func NewClassroomResponseSlice(items []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewClassroomResponse(item))
	}
	return responses
}
