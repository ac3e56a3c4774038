package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// LessonStateRepository stores per-lesson viewed/completed flags.
type LessonStateRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.LessonState, error)
	Get(ctx context.Context, studentID, lessonID string) (models.LessonState, error)
	Upsert(ctx context.Context, state *models.LessonState) error
}

type lessonStateRepository struct {
	db *gorm.DB
}

// NewLessonStateRepository constructs a lesson state repository.
func NewLessonStateRepository(db *gorm.DB) LessonStateRepository {
	return &lessonStateRepository{db: db}
}

func (r *lessonStateRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LessonState, error) {
	var states []models.LessonState
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&states).Error; err != nil {
		return nil, err
	}

	return states, nil
}

func (r *lessonStateRepository) Get(ctx context.Context, studentID, lessonID string) (models.LessonState, error) {
	var state models.LessonState
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		First(&state).Error
	if err != nil {
		return models.LessonState{}, err
	}

	return state, nil
}

// Upsert merges state into the stored row in a single statement. Flags are only ever raised,
// the first completion time is kept, and state is reloaded with the merged row.
func (r *lessonStateRepository) Upsert(ctx context.Context, state *models.LessonState) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"viewed":         gorm.Expr("lesson_states.viewed OR excluded.viewed"),
			"last_viewed_at": gorm.Expr("COALESCE(excluded.last_viewed_at, lesson_states.last_viewed_at)"),
			"completed":      gorm.Expr("lesson_states.completed OR excluded.completed"),
			"completed_at":   gorm.Expr("COALESCE(lesson_states.completed_at, excluded.completed_at)"),
			"updated_at":     gorm.Expr("excluded.updated_at"),
		}),
	}).Create(state).Error
	if err != nil {
		return err
	}

	merged, err := r.Get(ctx, state.StudentID, state.LessonID)
	if err != nil {
		return err
	}
	*state = merged
	return nil
}
