package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// AdminAnalyticsRepository supplies data for the admin dashboard overview.
type AdminAnalyticsRepository interface {
	CountActiveStudents(ctx context.Context) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	ListAttemptsSince(ctx context.Context, since time.Time) ([]models.QuizAttempt, error)
}

type adminAnalyticsRepository struct {
	db *gorm.DB
}

// NewAdminAnalyticsRepository constructs the analytics repository.
func NewAdminAnalyticsRepository(db *gorm.DB) AdminAnalyticsRepository {
	return &adminAnalyticsRepository{db: db}
}

func (r *adminAnalyticsRepository) CountActiveStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("is_deleted = ?", false).
		Count(&count).Error
	return count, err
}

func (r *adminAnalyticsRepository) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&count).Error
	return count, err
}

// ListAttemptsSince returns attempts created at or after since. Only the columns the overview
// needs are loaded.
func (r *adminAnalyticsRepository) ListAttemptsSince(ctx context.Context, since time.Time) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Select("id", "student_id", "quiz_score", "submitted_at", "created_at").
		Where("created_at >= ?", since).
		Find(&attempts).Error
	return attempts, err
}
