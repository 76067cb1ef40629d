package handler_test

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/service"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details []map[string]string    `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

// newApp mounts a classrooms group that authenticates every request as the given user.
func newApp(userID, role string) (*fiber.App, fiber.Router) {
	app := fiber.New()
	group := app.Group("/api/v1/classrooms", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals(middleware.LocalUserID, userID)
		}
		if role != "" {
			c.Locals(middleware.LocalUserRole, role)
		}
		return c.Next()
	})
	return app, group
}

type stubGradebookService struct {
	report        dto.GradeReportResponse
	settings      grading.Settings
	grade         dto.GradeResponse
	err           error
	lastClassroom string
	lastStudent   string
	lastActor     service.Actor
	lastGrade     dto.GradeRecordRequest
	lastSettings  dto.GradeSettingsRequest
}

func (s *stubGradebookService) Report(_ context.Context, classroomID, studentID string, actor service.Actor) (dto.GradeReportResponse, error) {
	s.lastClassroom, s.lastStudent, s.lastActor = classroomID, studentID, actor
	return s.report, s.err
}

func (s *stubGradebookService) Settings(_ context.Context, classroomID string) (grading.Settings, error) {
	s.lastClassroom = classroomID
	return s.settings, s.err
}

func (s *stubGradebookService) UpdateSettings(_ context.Context, classroomID string, payload dto.GradeSettingsRequest, actor service.Actor) (dto.ClassroomResponse, error) {
	s.lastClassroom, s.lastSettings, s.lastActor = classroomID, payload, actor
	if s.err != nil {
		return dto.ClassroomResponse{}, s.err
	}
	return dto.ClassroomResponse{ID: classroomID, GradeSettings: payload.ToSettings()}, nil
}

func (s *stubGradebookService) RecordGrade(_ context.Context, classroomID, assignmentID, studentID string, payload dto.GradeRecordRequest, actor service.Actor) (dto.GradeResponse, error) {
	s.lastClassroom, s.lastStudent, s.lastGrade, s.lastActor = classroomID, studentID, payload, actor
	if s.err != nil {
		return dto.GradeResponse{}, s.err
	}
	grade := s.grade
	grade.AssignmentID = assignmentID
	return grade, nil
}

type stubClassroomService struct {
	items []dto.ClassroomResponse
	err   error
	last  dto.ClassroomCreateRequest
	actor service.Actor
}

func (s *stubClassroomService) Create(_ context.Context, payload dto.ClassroomCreateRequest, actor service.Actor) (dto.ClassroomResponse, error) {
	s.last, s.actor = payload, actor
	if s.err != nil {
		return dto.ClassroomResponse{}, s.err
	}
	return dto.ClassroomResponse{ID: "c-new", Name: payload.Name, TeacherID: actor.ID}, nil
}

func (s *stubClassroomService) Get(_ context.Context, id string) (dto.ClassroomResponse, error) {
	if s.err != nil {
		return dto.ClassroomResponse{}, s.err
	}
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return dto.ClassroomResponse{}, service.ErrClassroomNotFound
}

func (s *stubClassroomService) List(_ context.Context, actor service.Actor) ([]dto.ClassroomResponse, error) {
	s.actor = actor
	return s.items, s.err
}

type stubAssignmentService struct {
	items   []dto.AssignmentResponse
	err     error
	deleted []string
}

func (s *stubAssignmentService) List(context.Context, string) ([]dto.AssignmentResponse, error) {
	return s.items, s.err
}

func (s *stubAssignmentService) Get(_ context.Context, _ string, id string) (dto.AssignmentResponse, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return dto.AssignmentResponse{}, service.ErrAssignmentNotFound
}

func (s *stubAssignmentService) Create(_ context.Context, classroomID string, payload dto.AssignmentCreateRequest, _ service.Actor) (dto.AssignmentResponse, error) {
	if s.err != nil {
		return dto.AssignmentResponse{}, s.err
	}
	return dto.AssignmentResponse{ID: "a-new", ClassroomID: classroomID, Title: payload.Title, DueAt: payload.DueAt}, nil
}

func (s *stubAssignmentService) Delete(_ context.Context, _ string, id string, _ service.Actor) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubSubmissionService struct {
	err      error
	fileName string
	actor    service.Actor
}

func (s *stubSubmissionService) Submit(_ context.Context, classroomID, assignmentID string, file *multipart.FileHeader, actor service.Actor) (dto.SubmissionResponse, error) {
	s.actor = actor
	if s.err != nil {
		return dto.SubmissionResponse{}, s.err
	}
	s.fileName = file.Filename
	return dto.SubmissionResponse{ID: "sub-1", ClassroomID: classroomID, AssignmentID: assignmentID, StudentID: actor.ID, FileName: file.Filename}, nil
}

func (s *stubSubmissionService) ListMine(_ context.Context, classroomID string, actor service.Actor) ([]dto.SubmissionResponse, error) {
	s.actor = actor
	return []dto.SubmissionResponse{{ID: "sub-1", ClassroomID: classroomID, StudentID: actor.ID}}, s.err
}

var (
	_ service.GradebookService  = (*stubGradebookService)(nil)
	_ service.ClassroomService  = (*stubClassroomService)(nil)
	_ service.AssignmentService = (*stubAssignmentService)(nil)
	_ service.SubmissionService = (*stubSubmissionService)(nil)
)
