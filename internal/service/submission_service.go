package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/observability"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader) (string, error)
}

var allowedSubmissionTypes = []string{
	"application/pdf",
	"application/zip",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// SubmissionService accepts student work for assignments.
type SubmissionService interface {
	Submit(ctx context.Context, classroomID, assignmentID string, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, classroomID string, actor Actor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	store    repository.Store
	uploader FileUploader
	cache    ReportCache
	events   EventPublisher
	maxBytes int64
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewSubmissionService constructs the submission service. maxBytes defaults to 10 MiB.
func NewSubmissionService(store repository.Store, uploader FileUploader, maxBytes int64, cache ReportCache, events EventPublisher, logger zerolog.Logger) SubmissionService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = NopPublisher()
	}
	return &submissionService{
		store:    store,
		uploader: uploader,
		cache:    cache,
		events:   events,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "submission_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/school-portal-api/internal/service/submission"),
		now:      time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, classroomID, assignmentID string, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	span.SetAttributes(
		attribute.String("submission.classroom_id", classroomID),
		attribute.String("submission.assignment_id", assignmentID),
		attribute.String("submission.student_id", actor.ID),
		attribute.Int64("submission.max_bytes", s.maxBytes),
	)
	defer span.End()

	fail := func(reason string, err error) (dto.SubmissionResponse, error) {
		observability.Submissions().WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.SubmissionResponse{}, err
	}

	if actor.ID == "" {
		return fail("forbidden", ErrForbidden)
	}
	if _, err := s.store.Classrooms.GetByID(ctx, classroomID); err != nil {
		return fail("classroom_lookup", mapNotFound(err, ErrClassroomNotFound))
	}
	if _, err := s.store.Assignments.GetByID(ctx, classroomID, assignmentID); err != nil {
		return fail("assignment_lookup", mapNotFound(err, ErrAssignmentNotFound))
	}

	if file == nil {
		return fail("invalid", ErrFileRequired)
	}
	if file.Size > s.maxBytes {
		return fail("too_large", ErrFileTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		return fail("read", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxBytes+1)); err != nil {
		return fail("read", err)
	}
	if int64(buf.Len()) > s.maxBytes {
		return fail("too_large", ErrFileTooLarge)
	}
	if buf.Len() == 0 {
		return fail("invalid", ErrFileRequired)
	}

	detected := mimetype.Detect(buf.Bytes())
	contentType, ok := allowedType(detected)
	span.SetAttributes(attribute.String("submission.detected_mime", detected.String()))
	if !ok {
		return fail("type", ErrUnsupportedFileType)
	}

	id := uuid.NewString()
	fileName := sanitizeFileName(file.Filename, detected.Extension())
	key := path.Join("submissions", sanitizeSegment(classroomID), sanitizeSegment(assignmentID), sanitizeSegment(actor.ID), id+"-"+fileName)

	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(buf.Bytes()))
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store submission artifact")
		return fail("storage", err)
	}

	submission := models.Submission{
		ID:           id,
		ClassroomID:  classroomID,
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		FileName:     fileName,
		FileURL:      url,
		ContentType:  contentType,
		Size:         int64(buf.Len()),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Submissions.Create(ctx, &submission); err != nil {
		return fail("persistence", err)
	}

	s.cache.InvalidateStudent(ctx, classroomID, actor.ID)
	s.events.Publish(ctx, Event{
		Type:         EventSubmissionCreated,
		ClassroomID:  classroomID,
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		ActorID:      actor.ID,
		OccurredAt:   submission.CreatedAt,
	})

	observability.Submissions().WithLabelValues("accepted").Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", assignmentID).
		Str("student_id", actor.ID).
		Str("content_type", contentType).
		Msg("submission stored")
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListMine(ctx context.Context, classroomID string, actor Actor) ([]dto.SubmissionResponse, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	if _, err := s.store.Classrooms.GetByID(ctx, classroomID); err != nil {
		return nil, mapNotFound(err, ErrClassroomNotFound)
	}
	submissions, err := s.store.Submissions.ListForStudent(ctx, classroomID, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func allowedType(detected *mimetype.MIME) (string, bool) {
	for _, allowed := range allowedSubmissionTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

func sanitizeFileName(name, detectedExt string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	base := sanitizeSegment(strings.ToLower(strings.TrimSuffix(name, path.Ext(name))))
	if base == "" {
		base = "submission"
	}
	if ext == "" || sanitizeSegment(strings.TrimPrefix(ext, ".")) != strings.TrimPrefix(ext, ".") {
		ext = detectedExt
	}
	return base + ext
}

func sanitizeSegment(value string) string {
	value = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, value)
	return strings.Trim(value, "-")
}
