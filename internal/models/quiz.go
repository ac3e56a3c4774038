package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizAttempt is one recorded quiz submission. Records are never updated once stored.
type QuizAttempt struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	CourseID       string     `gorm:"size:64;not null;index:idx_attempt_lookup,priority:1;uniqueIndex:idx_attempt_number,priority:1" json:"course_id"`
	LessonID       string     `gorm:"size:64;not null;index:idx_attempt_lookup,priority:2;uniqueIndex:idx_attempt_number,priority:2" json:"lesson_id"`
	StudentID      string     `gorm:"size:64;not null;index:idx_attempt_lookup,priority:3;uniqueIndex:idx_attempt_number,priority:3" json:"student_id"`
	Attempt        int        `gorm:"not null;default:1;uniqueIndex:idx_attempt_number,priority:4" json:"attempt"`
	IsCorrect      bool       `json:"is_correct"`
	QuizScore      float64    `json:"quiz_score"`
	Score          int        `json:"score"`
	SelectedAnswer string     `gorm:"size:255" json:"selected_answer"`
	CorrectAnswer  string     `gorm:"size:255" json:"correct_answer"`
	Question       string     `gorm:"type:text" json:"question"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName keeps the historical collection name.
func (QuizAttempt) TableName() string {
	return "quiz_responses"
}

// BeforeCreate assigns a document identifier when none was provided.
func (q *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// LessonState stores the quiz-independent progress flags of a student on a lesson.
type LessonState struct {
	StudentID    string     `gorm:"primaryKey;size:64" json:"student_id"`
	LessonID     string     `gorm:"primaryKey;size:64" json:"lesson_id"`
	Viewed       bool       `json:"viewed"`
	LastViewedAt *time.Time `json:"last_viewed_at"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
