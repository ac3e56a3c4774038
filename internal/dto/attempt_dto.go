package dto

import (
	"time"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// QuizAttemptCreateRequest is submitted by a student answering a lesson quiz.
type QuizAttemptCreateRequest struct {
	Question       string  `json:"question" validate:"required,max=2000"`
	SelectedAnswer string  `json:"selected_answer" validate:"required,max=255"`
	CorrectAnswer  string  `json:"correct_answer" validate:"required,max=255"`
	QuizScore      float64 `json:"quiz_score" validate:"gte=0,lte=100"`
	Score          int     `json:"score" validate:"gte=0"`
}

// LessonStateUpdateRequest flags a lesson as viewed and/or completed. Flags are only ever raised.
type LessonStateUpdateRequest struct {
	Viewed    bool `json:"viewed"`
	Completed bool `json:"completed"`
}

// QuizAttemptResponse echoes a stored attempt.
type QuizAttemptResponse struct {
	ID             string     `json:"id"`
	CourseID       string     `json:"course_id"`
	LessonID       string     `json:"lesson_id"`
	StudentID      string     `json:"student_id"`
	Attempt        int        `json:"attempt"`
	IsCorrect      bool       `json:"is_correct"`
	QuizScore      float64    `json:"quiz_score"`
	Score          int        `json:"score"`
	SelectedAnswer string     `json:"selected_answer"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}

// NewQuizAttemptResponse converts an attempt model into a DTO.
func NewQuizAttemptResponse(attempt models.QuizAttempt) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:             attempt.ID,
		CourseID:       attempt.CourseID,
		LessonID:       attempt.LessonID,
		StudentID:      attempt.StudentID,
		Attempt:        attempt.Attempt,
		IsCorrect:      attempt.IsCorrect,
		QuizScore:      attempt.QuizScore,
		Score:          attempt.Score,
		SelectedAnswer: attempt.SelectedAnswer,
		SubmittedAt:    attempt.SubmittedAt,
	}
}

// LessonStateResponse echoes the stored lesson flags.
type LessonStateResponse struct {
	StudentID    string     `json:"student_id"`
	LessonID     string     `json:"lesson_id"`
	Viewed       bool       `json:"viewed"`
	LastViewedAt *time.Time `json:"last_viewed_at"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// NewLessonStateResponse converts a lesson state model into a DTO.
func NewLessonStateResponse(state models.LessonState) LessonStateResponse {
	return LessonStateResponse{
		StudentID:    state.StudentID,
		LessonID:     state.LessonID,
		Viewed:       state.Viewed,
		LastViewedAt: state.LastViewedAt,
		Completed:    state.Completed,
		CompletedAt:  state.CompletedAt,
	}
}
