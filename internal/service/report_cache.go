package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-portal-api/internal/dto"
)

// ReportCache stores computed grade reports. Every key embeds a classroom
// version and a student version; bumping either makes older entries
// unreachable.
type ReportCache interface {
	// Get returns the cached report when present, plus the stamp a freshly
	// computed report must be stored under.
	Get(ctx context.Context, classroomID, studentID string) (dto.GradeReportResponse, ReportStamp, bool)
	Set(ctx context.Context, classroomID, studentID string, stamp ReportStamp, report dto.GradeReportResponse, ttl time.Duration)
	InvalidateStudent(ctx context.Context, classroomID, studentID string)
	InvalidateClassroom(ctx context.Context, classroomID string)
}

// ReportStamp pins the versions observed before a report's inputs were read.
// A report computed from data that changed after the stamp is written under
// a key no reader will ask for.
type ReportStamp struct {
	classroom int64
	student   int64
	valid     bool
}

type redisReportCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisReportCache returns a redis backed cache, or a no-op cache when client is nil.
func NewRedisReportCache(client *redis.Client, logger zerolog.Logger) ReportCache {
	if client == nil {
		return noCache{}
	}
	return &redisReportCache{
		client: client,
		logger: logger.With().Str("component", "report_cache").Logger(),
	}
}

func versionKey(classroomID string) string {
	return fmt.Sprintf("gradebook:classroom:%s:version", classroomID)
}

func studentVersionKey(classroomID, studentID string) string {
	return fmt.Sprintf("gradebook:classroom:%s:student:%s:version", classroomID, studentID)
}

func reportKey(classroomID, studentID string, stamp ReportStamp) string {
	return fmt.Sprintf("gradebook:classroom:%s:v%d:student:%s:v%d", classroomID, stamp.classroom, studentID, stamp.student)
}

func parseVersion(value interface{}) (int64, error) {
	if value == nil {
		return 0, nil
	}
	text, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected version value %T", value)
	}
	return strconv.ParseInt(text, 10, 64)
}

// stamp reads both versions in one round trip.
func (c *redisReportCache) stamp(ctx context.Context, classroomID, studentID string) (ReportStamp, error) {
	values, err := c.client.MGet(ctx, versionKey(classroomID), studentVersionKey(classroomID, studentID)).Result()
	if err != nil {
		return ReportStamp{}, err
	}
	classroomVersion, err := parseVersion(values[0])
	if err != nil {
		return ReportStamp{}, err
	}
	studentVersion, err := parseVersion(values[1])
	if err != nil {
		return ReportStamp{}, err
	}
	return ReportStamp{classroom: classroomVersion, student: studentVersion, valid: true}, nil
}

func (c *redisReportCache) Get(ctx context.Context, classroomID, studentID string) (dto.GradeReportResponse, ReportStamp, bool) {
	stamp, err := c.stamp(ctx, classroomID, studentID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read gradebook version")
		return dto.GradeReportResponse{}, ReportStamp{}, false
	}

	cached, err := c.client.Get(ctx, reportKey(classroomID, studentID, stamp)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read grade report cache")
		}
		return dto.GradeReportResponse{}, stamp, false
	}

	var report dto.GradeReportResponse
	if err := json.Unmarshal(cached, &report); err != nil {
		c.logger.Warn().Err(err).Msg("discarding undecodable grade report cache entry")
		return dto.GradeReportResponse{}, stamp, false
	}
	return report, stamp, true
}

func (c *redisReportCache) Set(ctx context.Context, classroomID, studentID string, stamp ReportStamp, report dto.GradeReportResponse, ttl time.Duration) {
	if ttl <= 0 || !stamp.valid {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode grade report")
		return
	}
	if err := c.client.Set(ctx, reportKey(classroomID, studentID, stamp), payload, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store grade report cache")
	}
}

// InvalidateStudent bumps the student version and drops the entry it replaced.
func (c *redisReportCache) InvalidateStudent(ctx context.Context, classroomID, studentID string) {
	next, err := c.client.Incr(ctx, studentVersionKey(classroomID, studentID)).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to bump student report version")
		return
	}
	classroomVersion, err := c.client.Get(ctx, versionKey(classroomID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("failed to read gradebook version")
		return
	}
	previous := ReportStamp{classroom: classroomVersion, student: next - 1}
	if err := c.client.Del(ctx, reportKey(classroomID, studentID, previous)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to drop replaced grade report")
	}
}

func (c *redisReportCache) InvalidateClassroom(ctx context.Context, classroomID string) {
	if err := c.client.Incr(ctx, versionKey(classroomID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("classroom_id", classroomID).Msg("failed to bump gradebook version")
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string, string) (dto.GradeReportResponse, ReportStamp, bool) {
	return dto.GradeReportResponse{}, ReportStamp{}, false
}

func (noCache) Set(context.Context, string, string, ReportStamp, dto.GradeReportResponse, time.Duration) {}

func (noCache) InvalidateStudent(context.Context, string, string) {}

func (noCache) InvalidateClassroom(context.Context, string) {}
