package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// LessonRepository provides access to the lessons of a course.
type LessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	GetByID(ctx context.Context, courseID, lessonID string) (models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, courseID, lessonID string) error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Order("uploaded_at ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, courseID, lessonID string) (models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, lessonID).
		First(&lesson).Error
	if err != nil {
		return models.Lesson{}, err
	}

	return lesson, nil
}

// Create appends the lesson at the end of the course order.
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position int
		if err := tx.Model(&models.Lesson{}).
			Where("course_id = ?", lesson.CourseID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&position).Error; err != nil {
			return err
		}

		lesson.Position = position + 1
		return tx.Create(lesson).Error
	})
}

func (r *lessonRepository) Delete(ctx context.Context, courseID, lessonID string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, lessonID).
		Delete(&models.Lesson{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
