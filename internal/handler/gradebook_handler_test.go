package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/service"
)

func floatPtr(v float64) *float64 {
	return &v
}

func sampleReport(percent grading.Percent) dto.GradeReportResponse {
	return dto.GradeReportResponse{
		ClassroomID:  "c1",
		StudentID:    "s1",
		Percent:      percent,
		Letter:       percent.Letter(),
		MissingCount: 1,
		Categories: []grading.CategoryResult{
			{Key: "homework", Name: "Homework", WeightPct: 100, EffectiveWeightPct: 100, Earned: 80, Possible: 100, Percent: percent},
		},
		Assignments: []dto.AssignmentGradeView{
			{AssignmentID: "a1", Title: "Essay", Category: "Homework", PointsPossible: 100, PointsEarned: floatPtr(80), Status: "graded", DueAt: "2020-01-01", PastDue: true, Submitted: true},
			{AssignmentID: "a2", Title: "Quiz", Category: "Homework", PointsPossible: 100, DueAt: "2020-02-01", PastDue: true, Missing: true},
		},
		ComputedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestGradebookHandlerMyReportUsesCaller(t *testing.T) {
	svc := &stubGradebookService{report: sampleReport(grading.PercentOf(80))}
	app, group := newApp("s1", "student")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grades/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "c1", svc.lastClassroom)
	require.Equal(t, "s1", svc.lastStudent)
	require.Equal(t, service.Actor{ID: "s1", Role: "student"}, svc.lastActor)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(payload.Data, &report))
	require.Equal(t, float64(80), report["percent"])
	require.Equal(t, "B-", report["letter"])
	require.Equal(t, float64(1), report["missingCount"])
}

func TestGradebookHandlerReportRoles(t *testing.T) {
	svc := &stubGradebookService{report: sampleReport(grading.NoData())}

	app, group := newApp("t1", "teacher")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grades/s9", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "s9", svc.lastStudent)

	payload := decodeEnvelope(t, resp)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(payload.Data, &report))
	require.Contains(t, report, "percent")
	require.Nil(t, report["percent"])
	require.Equal(t, "N/A", report["letter"])

	studentApp, studentGroup := newApp("s1", "student")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(studentGroup)
	resp, err = studentApp.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grades/s9", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGradebookHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrClassroomNotFound, fiber.StatusNotFound},
		{service.ErrForbidden, fiber.StatusForbidden},
		{errors.New("db down"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &stubGradebookService{err: tc.err}
		app, group := newApp("s1", "student")
		handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grades/me", nil), -1)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		payload := decodeEnvelope(t, resp)
		require.False(t, payload.Success)
	}
}

func TestGradebookHandlerRecordGrade(t *testing.T) {
	svc := &stubGradebookService{grade: dto.GradeResponse{ID: "g1", StudentID: "s1", Status: "late"}}
	app, group := newApp("t1", "teacher")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	body := `{"pointsEarned": 72.5, "status": "late", "lateDaysOverride": 2, "feedback": "ok"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/classrooms/c1/assignments/a1/grades/s1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, "s1", svc.lastStudent)
	require.NotNil(t, svc.lastGrade.PointsEarned)
	require.InDelta(t, 72.5, *svc.lastGrade.PointsEarned, 1e-9)
	require.Equal(t, 2, *svc.lastGrade.LateDaysOverride)
	require.Equal(t, "t1", svc.lastActor.ID)

	var grade dto.GradeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &grade))
	require.Equal(t, "a1", grade.AssignmentID)
}

func TestGradebookHandlerRecordGradeRequiresStaff(t *testing.T) {
	svc := &stubGradebookService{}
	app, group := newApp("s1", "student")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/classrooms/c1/assignments/a1/grades/s1", strings.NewReader(`{"pointsEarned": 100}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.lastStudent)
}

func TestGradebookHandlerSettingsValidationDetails(t *testing.T) {
	validate := validator.New()
	validationErr := validate.Struct(dto.GradeSettingsRequest{
		Categories: []dto.GradeCategoryRequest{{Name: "Homework", WeightPct: 120}},
	})
	require.Error(t, validationErr)

	svc := &stubGradebookService{err: validationErr}
	app, group := newApp("t1", "teacher")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/classrooms/c1/grade-settings", strings.NewReader(`{"categories":[{"name":"Homework","weightPct":120}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.Equal(t, "validation failed", payload.Message)
	require.Len(t, payload.Details, 1)
	require.Equal(t, "Categories[0].WeightPct", payload.Details[0]["field"])
	require.Equal(t, "lte", payload.Details[0]["rule"])
	require.Equal(t, 120, svc.lastSettings.Categories[0].WeightPct)
}

func TestGradebookHandlerSettings(t *testing.T) {
	svc := &stubGradebookService{settings: grading.Settings{
		Categories:           []grading.Category{{Name: "Tests", WeightPct: 70}, {Name: "Homework", WeightPct: 30}},
		LatePenaltyPerDayPct: 10,
		MaxLatePenaltyPct:    50,
	}}
	app, group := newApp("s1", "student")
	handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grade-settings", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var settings grading.Settings
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &settings))
	require.Equal(t, svc.settings, settings)
}

func TestGradeReportContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "..", "contracts", "grade_report.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	for _, percent := range []grading.Percent{grading.PercentOf(80), grading.NoData()} {
		svc := &stubGradebookService{report: sampleReport(percent)}
		app, group := newApp("s1", "student")
		handler.NewGradebookHandler(svc, zerolog.Nop()).Register(group)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/c1/grades/me", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		var payload interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.NoError(t, schema.Validate(payload))
	}
}
