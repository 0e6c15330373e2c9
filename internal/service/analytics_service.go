package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/analytics"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type analyticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type analyticsMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// AnalyticsService loads raw incidents and behaviors and runs them through
// the pure aggregation pipeline, caching assembled overviews per class.
type AnalyticsService struct {
	incidents incidentRepository
	behaviors behaviorRepository
	students  studentGetter
	classes   classGetter
	cache     analyticsCache
	metrics   analyticsMetrics
	ttl       time.Duration
	loc       *time.Location
	logger    *zap.Logger
}

// NewAnalyticsService constructs the service. A nil cache disables caching;
// a nil location buckets time series in the server's local zone.
func NewAnalyticsService(incidents incidentRepository, behaviors behaviorRepository, students studentGetter, classes classGetter, cache analyticsCache, metrics analyticsMetrics, ttl time.Duration, loc *time.Location, logger *zap.Logger) *AnalyticsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		incidents: incidents,
		behaviors: behaviors,
		students:  students,
		classes:   classes,
		cache:     cache,
		metrics:   metrics,
		ttl:       ttl,
		loc:       loc,
		logger:    logger,
	}
}

// AnalyticsRequest scopes an overview. ClassID is required; StudentID narrows
// to one student, BehaviorID to one behavior, and the bounds to a date range.
type AnalyticsRequest struct {
	ClassID    string
	StudentID  string
	BehaviorID string
	From       *time.Time
	To         *time.Time
}

// Overview bundles the three aggregations every analytics view needs.
type Overview struct {
	Summary      analytics.Summary             `json:"summary"`
	Distribution []analytics.DistributionEntry `json:"distribution"`
	TimeSeries   []analytics.TimeSeriesBucket  `json:"time_series"`
}

// Overview computes (or serves from cache) the aggregate view for the scope.
func (s *AnalyticsService) Overview(ctx context.Context, teacherID string, req AnalyticsRequest) (*Overview, error) {
	if req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required")
	}
	if err := s.ensureClassOwned(ctx, teacherID, req.ClassID); err != nil {
		return nil, err
	}

	key := s.cacheKey(teacherID, req)
	if s.cache != nil {
		started := time.Now()
		var cached Overview
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.recordCache(true, time.Since(started))
			return &cached, nil
		}
		s.recordCache(false, time.Since(started))
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	incidents, behaviors, err := s.load(ctx, teacherID, req)
	if err != nil {
		return nil, err
	}

	sel := analytics.All()
	if req.BehaviorID != "" {
		sel = analytics.ForBehavior(req.BehaviorID)
	}
	overview := &Overview{
		Summary:      analytics.Summarize(incidents, behaviors, sel),
		Distribution: analytics.Distribution(incidents, behaviors),
		TimeSeries:   analytics.TimeSeries(incidents, behaviors, sel, s.loc),
	}

	if s.cache != nil {
		started := time.Now()
		if err := s.cache.Set(ctx, key, overview, s.ttl); err != nil {
			s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		} else if s.metrics != nil {
			s.metrics.ObserveCacheWrite(time.Since(started))
		}
	}
	return overview, nil
}

// StudentReport assembles the per-student report fed into the email drafting
// flow. Never cached; reports are requested rarely and must be fresh.
func (s *AnalyticsService) StudentReport(ctx context.Context, teacherID, studentID string, from, to time.Time) (*analytics.Report, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	// Foreign students are indistinguishable from absent ones.
	if err := s.ensureClassOwned(ctx, teacherID, student.ClassID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	incidents, behaviors, err := s.load(ctx, teacherID, AnalyticsRequest{
		ClassID:   student.ClassID,
		StudentID: studentID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return nil, err
	}

	name := student.FirstName + " " + student.LastName
	report := analytics.BuildReport(studentID, name, from, to, incidents, behaviors, 0)
	return &report, nil
}

// InvalidateClass drops every cached overview for the class. Called after
// incident writes; failures are logged and swallowed because a stale cache
// entry expires on its own.
func (s *AnalyticsService) InvalidateClass(ctx context.Context, classID string) {
	if s.cache == nil || classID == "" {
		return
	}
	pattern := fmt.Sprintf("analytics:%s:*", classID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.String("class_id", classID), zap.Error(err))
	}
}

func (s *AnalyticsService) ensureClassOwned(ctx context.Context, teacherID, classID string) error {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class == nil || class.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return nil
}

func (s *AnalyticsService) load(ctx context.Context, teacherID string, req AnalyticsRequest) ([]models.Incident, []models.Behavior, error) {
	filter := models.IncidentFilter{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		From:      req.From,
		To:        req.To,
	}
	incidents, err := s.incidents.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incidents")
	}
	behaviors, err := s.behaviors.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behaviors")
	}
	return incidents, behaviors, nil
}

func (s *AnalyticsService) cacheKey(teacherID string, req AnalyticsRequest) string {
	from, to := "", ""
	if req.From != nil {
		from = req.From.UTC().Format(time.RFC3339)
	}
	if req.To != nil {
		to = req.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("analytics:%s:%s:%s:%s:%s:%s", req.ClassID, teacherID, req.StudentID, req.BehaviorID, from, to)
}

func (s *AnalyticsService) recordCache(hit bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, d)
	}
}
