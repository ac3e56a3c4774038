package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/progress"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

const (
	dashboardCacheKey = "analytics:dashboard"
	engagementWeeks   = 8
)

// AdminAnalyticsService aggregates the overview shown on the admin home page.
type AdminAnalyticsService interface {
	GetSummary(ctx context.Context) (dto.AdminDashboardResponse, error)
}

type adminAnalyticsService struct {
	repo     repository.AdminAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service.
func NewAdminAnalyticsService(repo repository.AdminAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &adminAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "admin_analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *adminAnalyticsService) GetSummary(ctx context.Context) (dto.AdminDashboardResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/lms-admin-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", dashboardCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var response dto.AdminDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	activeCount, err := s.repo.CountActiveStudents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_active_students_failed")
		return dto.AdminDashboardResponse{}, err
	}

	courseCount, err := s.repo.CountCourses(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_courses_failed")
		return dto.AdminDashboardResponse{}, err
	}

	now := s.now()
	attempts, err := s.repo.ListAttemptsSince(ctx, startOfWeek(now).AddDate(0, 0, -7*(engagementWeeks-1)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_attempts_failed")
		return dto.AdminDashboardResponse{}, err
	}

	summary := buildDashboard(now, activeCount, courseCount, attempts)
	span.SetAttributes(
		attribute.Int64("analytics.active_students", activeCount),
		attribute.Int("analytics.attempt_count", len(attempts)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func buildDashboard(now time.Time, activeCount, courseCount int64, attempts []models.QuizAttempt) dto.AdminDashboardResponse {
	distribution := dto.ScoreDistributionResponse{
		"90-100": 0,
		"80-89":  0,
		"60-79":  0,
		"0-59":   0,
	}

	passed := int64(0)
	weekly := map[time.Time]int64{}
	weeklyStudents := map[time.Time]map[string]struct{}{}

	for _, attempt := range attempts {
		score := attempt.QuizScore
		switch {
		case score >= 90:
			distribution["90-100"]++
		case score >= progress.LessonPassThreshold:
			distribution["80-89"]++
		case score >= 60:
			distribution["60-79"]++
		default:
			distribution["0-59"]++
		}
		if score >= progress.LessonPassThreshold {
			passed++
		}

		at := attempt.CreatedAt
		if attempt.SubmittedAt != nil && !attempt.SubmittedAt.IsZero() {
			at = *attempt.SubmittedAt
		}
		week := startOfWeek(at)
		weekly[week]++
		if weeklyStudents[week] == nil {
			weeklyStudents[week] = map[string]struct{}{}
		}
		weeklyStudents[week][attempt.StudentID] = struct{}{}
	}

	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	engagement := make([]dto.WeeklyEngagementPoint, 0, len(weeks))
	for _, week := range weeks {
		engagement = append(engagement, dto.WeeklyEngagementPoint{
			WeekStart: week,
			Attempts:  weekly[week],
			Students:  len(weeklyStudents[week]),
		})
	}

	passRate := 0.0
	if len(attempts) > 0 {
		passRate = float64(passed) * 100 / float64(len(attempts))
	}

	return dto.AdminDashboardResponse{
		ActiveStudents:    activeCount,
		Courses:           courseCount,
		RecentAttempts:    int64(len(attempts)),
		PassRate:          passRate,
		ScoreDistribution: distribution,
		WeeklyEngagement:  engagement,
		GeneratedAt:       now,
	}
}

func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
