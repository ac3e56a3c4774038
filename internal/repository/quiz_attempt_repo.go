package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// QuizAttemptRepository stores and lists quiz submissions.
type QuizAttemptRepository interface {
	ListForLesson(ctx context.Context, courseID, lessonID, studentID string) ([]models.QuizAttempt, error)
	Create(ctx context.Context, attempt *models.QuizAttempt) error
}

type quizAttemptRepository struct {
	db *gorm.DB
}

// NewQuizAttemptRepository constructs a quiz attempt repository.
func NewQuizAttemptRepository(db *gorm.DB) QuizAttemptRepository {
	return &quizAttemptRepository{db: db}
}

// ListForLesson returns the attempts of a student on a lesson ordered by attempt number.
func (r *quizAttemptRepository) ListForLesson(ctx context.Context, courseID, lessonID, studentID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND lesson_id = ? AND student_id = ?", courseID, lessonID, studentID).
		Order("attempt ASC").
		Order("created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	return attempts, nil
}

// attemptNumberRetries bounds how often a colliding attempt number is recomputed.
const attemptNumberRetries = 3

// Create numbers the attempt after the latest one of the same student and lesson. The student
// row is locked while numbering; the unique attempt number index rejects any collision that
// slips through, and a collision is retried with a fresh number.
func (r *quizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	var err error
	for try := 0; try < attemptNumberRetries; try++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var owner []models.Student
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				Where("id = ?", attempt.StudentID).
				Find(&owner).Error; err != nil {
				return err
			}

			var latest int
			if err := tx.Model(&models.QuizAttempt{}).
				Where("course_id = ? AND lesson_id = ? AND student_id = ?", attempt.CourseID, attempt.LessonID, attempt.StudentID).
				Select("COALESCE(MAX(attempt), 0)").
				Scan(&latest).Error; err != nil {
				return err
			}

			attempt.Attempt = latest + 1
			return tx.Create(attempt).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}

	return fmt.Errorf("number quiz attempt: %w", err)
}
