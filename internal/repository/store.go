package repository

import "gorm.io/gorm"

// Store bundles the repositories of one storage backend.
type Store struct {
	Classrooms  ClassroomRepository
	Assignments AssignmentRepository
	Grades      GradeRepository
	Submissions SubmissionRepository
}

// NewGormStore builds a Store on top of a relational database.
func NewGormStore(db *gorm.DB) Store {
	return Store{
		Classrooms:  NewClassroomRepository(db),
		Assignments: NewAssignmentRepository(db),
		Grades:      NewGradeRepository(db),
		Submissions: NewSubmissionRepository(db),
	}
}
