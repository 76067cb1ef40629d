package service

import (
	"errors"
	"strings"

	"github.com/noah-isme/school-portal-api/internal/repository"
)

var (
	// ErrClassroomNotFound indicates the classroom does not exist.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrAssignmentNotFound indicates the assignment does not exist in the classroom.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrForbidden indicates the actor may not act on the classroom or student.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidDueAt indicates a due date that cannot be parsed.
	ErrInvalidDueAt = errors.New("dueAt must be an ISO-8601 date or timestamp")
	// ErrDuplicateCategory indicates two categories share a name.
	ErrDuplicateCategory = errors.New("grade categories must have unique names")
	// ErrEmptyAfterSanitize indicates a required text field held only markup.
	ErrEmptyAfterSanitize = errors.New("value empty after sanitization")
	// ErrFileRequired indicates the submission carried no file.
	ErrFileRequired = errors.New("file is required")
	// ErrFileTooLarge indicates the upload exceeded the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUnsupportedFileType indicates the detected MIME type is not accepted.
	ErrUnsupportedFileType = errors.New("file type not allowed")
)

const (
	roleAdmin   = "admin"
	roleTeacher = "teacher"
	roleStudent = "student"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) role() string {
	return strings.ToLower(strings.TrimSpace(a.Role))
}

// IsAdmin reports whether the actor administers the portal.
func (a Actor) IsAdmin() bool {
	return a.role() == roleAdmin
}

// IsStaff reports whether the actor is a teacher or administrator.
func (a Actor) IsStaff() bool {
	role := a.role()
	return role == roleTeacher || role == roleAdmin
}

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool {
	return a.role() == roleStudent
}

// mapNotFound replaces repository.ErrNotFound with the given sentinel.
func mapNotFound(err, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}
