package jsonfile

import (
	"context"
	"slices"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

type classroomRepository struct{ s *Store }

func (r *classroomRepository) Create(_ context.Context, classroom *models.Classroom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	classroom.CreatedAt, classroom.UpdatedAt = now, now
	next := append(slices.Clone(r.s.classrooms), *classroom)
	if err := r.s.persist(collection{classroomsFile, next}); err != nil {
		return err
	}
	r.s.classrooms = next
	return nil
}

func (r *classroomRepository) GetByID(_ context.Context, id string) (models.Classroom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, classroom := range r.s.classrooms {
		if classroom.ID == id {
			return classroom, nil
		}
	}
	return models.Classroom{}, repository.ErrNotFound
}

func (r *classroomRepository) List(_ context.Context, teacherID string) ([]models.Classroom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	classrooms := make([]models.Classroom, 0, len(r.s.classrooms))
	for _, classroom := range r.s.classrooms {
		if teacherID == "" || classroom.TeacherID == teacherID {
			classrooms = append(classrooms, classroom)
		}
	}
	sort.SliceStable(classrooms, func(i, j int) bool {
		return strings.Compare(classrooms[i].Name, classrooms[j].Name) < 0
	})
	return classrooms, nil
}

func (r *classroomRepository) UpdateSettings(_ context.Context, id string, settings grading.Settings) (models.Classroom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := slices.IndexFunc(r.s.classrooms, func(c models.Classroom) bool { return c.ID == id })
	if i < 0 {
		return models.Classroom{}, repository.ErrNotFound
	}

	next := slices.Clone(r.s.classrooms)
	next[i].GradeSettings = datatypes.NewJSONType(settings)
	next[i].UpdatedAt = r.s.now().UTC()
	if err := r.s.persist(collection{classroomsFile, next}); err != nil {
		return models.Classroom{}, err
	}
	r.s.classrooms = next
	return next[i], nil
}

type assignmentRepository struct{ s *Store }

func (r *assignmentRepository) Create(_ context.Context, assignment *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	assignment.CreatedAt, assignment.UpdatedAt = now, now
	next := append(slices.Clone(r.s.assignments), *assignment)
	if err := r.s.persist(collection{assignmentsFile, next}); err != nil {
		return err
	}
	r.s.assignments = next
	return nil
}

func (r *assignmentRepository) GetByID(_ context.Context, classroomID, id string) (models.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, assignment := range r.s.assignments {
		if assignment.ID == id && assignment.ClassroomID == classroomID {
			return assignment, nil
		}
	}
	return models.Assignment{}, repository.ErrNotFound
}

func (r *assignmentRepository) ListByClassroom(_ context.Context, classroomID string) ([]models.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	assignments := make([]models.Assignment, 0)
	for _, assignment := range r.s.assignments {
		if assignment.ClassroomID == classroomID {
			assignments = append(assignments, assignment)
		}
	}
	return assignments, nil
}

func (r *assignmentRepository) Delete(_ context.Context, classroomID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.assignments[:0:0]
	found := false
	for _, assignment := range r.s.assignments {
		if assignment.ID == id && assignment.ClassroomID == classroomID {
			found = true
			continue
		}
		kept = append(kept, assignment)
	}
	if !found {
		return repository.ErrNotFound
	}

	grades := r.s.grades[:0:0]
	for _, grade := range r.s.grades {
		if grade.AssignmentID != id {
			grades = append(grades, grade)
		}
	}
	submissions := r.s.submissions[:0:0]
	for _, submission := range r.s.submissions {
		if submission.AssignmentID != id {
			submissions = append(submissions, submission)
		}
	}

	err := r.s.persist(
		collection{gradesFile, grades},
		collection{submissionsFile, submissions},
		collection{assignmentsFile, kept},
	)
	if err != nil {
		return err
	}
	r.s.assignments, r.s.grades, r.s.submissions = kept, grades, submissions
	return nil
}

type gradeRepository struct{ s *Store }

func (r *gradeRepository) Upsert(_ context.Context, grade *models.Grade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	record := *grade
	record.UpdatedAt = r.s.now().UTC()
	record.CreatedAt = record.UpdatedAt

	next := slices.Clone(r.s.grades)
	i := slices.IndexFunc(next, func(g models.Grade) bool {
		return g.AssignmentID == record.AssignmentID && g.StudentID == record.StudentID
	})
	if i >= 0 {
		record.ID = next[i].ID
		record.CreatedAt = next[i].CreatedAt
		next[i] = record
	} else {
		next = append(next, record)
	}

	if err := r.s.persist(collection{gradesFile, next}); err != nil {
		return err
	}
	r.s.grades = next
	*grade = record
	return nil
}

func (r *gradeRepository) Get(_ context.Context, assignmentID, studentID string) (models.Grade, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, grade := range r.s.grades {
		if grade.AssignmentID == assignmentID && grade.StudentID == studentID {
			return grade, nil
		}
	}
	return models.Grade{}, repository.ErrNotFound
}

func (r *gradeRepository) ListForStudent(_ context.Context, classroomID, studentID string) ([]models.Grade, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	grades := make([]models.Grade, 0)
	for _, grade := range r.s.grades {
		if grade.ClassroomID == classroomID && grade.StudentID == studentID {
			grades = append(grades, grade)
		}
	}
	return grades, nil
}

type submissionRepository struct{ s *Store }

func (r *submissionRepository) Create(_ context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	submission.CreatedAt = r.s.now().UTC()
	next := append(slices.Clone(r.s.submissions), *submission)
	if err := r.s.persist(collection{submissionsFile, next}); err != nil {
		return err
	}
	r.s.submissions = next
	return nil
}

func (r *submissionRepository) ListForStudent(_ context.Context, classroomID, studentID string) ([]models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	submissions := make([]models.Submission, 0)
	for i := len(r.s.submissions) - 1; i >= 0; i-- {
		submission := r.s.submissions[i]
		if submission.ClassroomID == classroomID && submission.StudentID == studentID {
			submissions = append(submissions, submission)
		}
	}
	return submissions, nil
}

func (r *submissionRepository) SubmittedAssignmentIDs(_ context.Context, classroomID, studentID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, submission := range r.s.submissions {
		if submission.ClassroomID != classroomID || submission.StudentID != studentID {
			continue
		}
		if _, ok := seen[submission.AssignmentID]; ok {
			continue
		}
		seen[submission.AssignmentID] = struct{}{}
		ids = append(ids, submission.AssignmentID)
	}
	return ids, nil
}
