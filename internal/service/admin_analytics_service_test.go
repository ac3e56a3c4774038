package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

func TestAdminAnalyticsServiceSummaryAndCache(t *testing.T) {
	db := setupServiceDB(t)
	ctx := context.Background()

	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	require.NoError(t, db.Create(&[]models.Student{
		{ID: "s1", Name: "Ada", Email: "ada@example.com"},
		{ID: "s2", Name: "Alan", Email: "alan@example.com"},
		{ID: "s3", Name: "Grace", Email: "grace@example.com", IsDeleted: true},
	}).Error)
	require.NoError(t, db.Create(&models.Course{ID: "c1", Title: "Algebra"}).Error)

	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC) // Thursday
	lastWeek := now.AddDate(0, 0, -7)
	require.NoError(t, db.Create(&[]models.QuizAttempt{
		{CourseID: "c1", LessonID: "l1", StudentID: "s1", QuizScore: 95, CreatedAt: now.Add(-time.Hour)},
		{CourseID: "c1", LessonID: "l1", StudentID: "s2", QuizScore: 40, CreatedAt: now.Add(-2 * time.Hour)},
		{CourseID: "c1", LessonID: "l2", StudentID: "s1", QuizScore: 82, CreatedAt: lastWeek},
		{CourseID: "c1", LessonID: "l2", StudentID: "s2", QuizScore: 70, CreatedAt: now.AddDate(0, 0, -90)},
	}).Error)

	svc := NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), client, time.Minute, testLogger())
	svc.(*adminAnalyticsService).now = func() time.Time { return now }

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, int64(2), summary.ActiveStudents)
	require.Equal(t, int64(1), summary.Courses)
	require.Equal(t, int64(3), summary.RecentAttempts)
	require.InDelta(t, 66.67, summary.PassRate, 0.01)
	require.Equal(t, int64(1), summary.ScoreDistribution["90-100"])
	require.Equal(t, int64(1), summary.ScoreDistribution["80-89"])
	require.Equal(t, int64(0), summary.ScoreDistribution["60-79"])
	require.Equal(t, int64(1), summary.ScoreDistribution["0-59"])

	require.Len(t, summary.WeeklyEngagement, 2)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), summary.WeeklyEngagement[0].WeekStart)
	require.Equal(t, int64(1), summary.WeeklyEngagement[0].Attempts)
	require.Equal(t, int64(2), summary.WeeklyEngagement[1].Attempts)
	require.Equal(t, 2, summary.WeeklyEngagement[1].Students)

	require.True(t, server.Exists(dashboardCacheKey))

	cached, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, summary.RecentAttempts, cached.RecentAttempts)
}

func TestAdminAnalyticsServiceWithoutCache(t *testing.T) {
	db := setupServiceDB(t)

	svc := NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), nil, 0, testLogger())

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.RecentAttempts)
	require.Zero(t, summary.PassRate)
	require.Empty(t, summary.WeeklyEngagement)
	require.Len(t, summary.ScoreDistribution, 4)
}

func TestStartOfWeekUsesMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, monday, startOfWeek(monday))
}
