package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/school-portal-api/internal/grading"
)

// Classroom groups assignments and the grading policy applied to them.
type Classroom struct {
	ID            string                               `gorm:"primaryKey;size:36" json:"id"`
	Name          string                               `gorm:"size:255;not null" json:"name"`
	TeacherID     string                               `gorm:"size:64;index;not null" json:"teacher_id"`
	GradeSettings datatypes.JSONType[grading.Settings] `gorm:"type:json" json:"grade_settings"`
	CreatedAt     time.Time                            `json:"created_at"`
	UpdatedAt     time.Time                            `json:"updated_at"`
}

// DefaultGradeSettings is applied to new classrooms.
func DefaultGradeSettings() grading.Settings {
	return grading.Settings{
		Categories: []grading.Category{{Name: grading.DefaultCategory, WeightPct: 100}},
	}
}

// Settings returns the decoded grading policy.
func (c Classroom) Settings() grading.Settings {
	return c.GradeSettings.Data()
}
