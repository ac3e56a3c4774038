package repository

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/progress"
)

// ProgressSource adapts the GORM repositories to the collaborator consumed by progress.Builder.
type ProgressSource struct {
	students StudentRepository
	courses  CourseRepository
	lessons  LessonRepository
	attempts QuizAttemptRepository
	states   LessonStateRepository
}

var _ progress.Source = (*ProgressSource)(nil)

// NewProgressSource wires the repositories used to build progress reports.
func NewProgressSource(students StudentRepository, courses CourseRepository, lessons LessonRepository, attempts QuizAttemptRepository, states LessonStateRepository) *ProgressSource {
	return &ProgressSource{
		students: students,
		courses:  courses,
		lessons:  lessons,
		attempts: attempts,
		states:   states,
	}
}

// EnrolledCourseIDs lists the courses of a student in enrollment order.
func (s *ProgressSource) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	return s.students.EnrolledCourseIDs(ctx, studentID)
}

// CourseName resolves the title of a course.
func (s *ProgressSource) CourseName(ctx context.Context, courseID string) (string, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", progress.ErrNotFound
		}
		return "", err
	}

	return course.Title, nil
}

// Lessons lists the lessons defined on a course in course order.
func (s *ProgressSource) Lessons(ctx context.Context, courseID string) ([]progress.LessonRef, error) {
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	refs := make([]progress.LessonRef, 0, len(lessons))
	for _, lesson := range lessons {
		refs = append(refs, progress.LessonRef{ID: lesson.ID, Name: lesson.Title})
	}

	return refs, nil
}

// Attempts lists the attempts of a student on one lesson ordered by attempt number.
func (s *ProgressSource) Attempts(ctx context.Context, courseID, lessonID, studentID string) ([]progress.Attempt, error) {
	records, err := s.attempts.ListForLesson(ctx, courseID, lessonID, studentID)
	if err != nil {
		return nil, err
	}

	attempts := make([]progress.Attempt, 0, len(records))
	for _, record := range records {
		attempts = append(attempts, toProgressAttempt(record, courseID, lessonID))
	}

	return attempts, nil
}

// LessonStates returns the basic state of every lesson the student touched.
func (s *ProgressSource) LessonStates(ctx context.Context, studentID string) (map[string]progress.LessonState, error) {
	records, err := s.states.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	states := make(map[string]progress.LessonState, len(records))
	for _, record := range records {
		states[record.LessonID] = progress.LessonState{
			Viewed:       record.Viewed,
			LastViewedAt: record.LastViewedAt,
			Completed:    record.Completed,
			CompletedAt:  record.CompletedAt,
		}
	}

	return states, nil
}

func toProgressAttempt(record models.QuizAttempt, courseID, lessonID string) progress.Attempt {
	attempt := progress.Attempt{
		ID:             record.ID,
		LessonID:       record.LessonID,
		CourseID:       record.CourseID,
		AttemptNumber:  record.Attempt,
		IsCorrect:      record.IsCorrect,
		ScorePercent:   record.QuizScore,
		PointsScore:    record.Score,
		SelectedAnswer: record.SelectedAnswer,
		CorrectAnswer:  record.CorrectAnswer,
		Question:       record.Question,
	}

	if attempt.LessonID == "" {
		attempt.LessonID = lessonID
	}
	if attempt.CourseID == "" {
		attempt.CourseID = courseID
	}
	if attempt.AttemptNumber <= 0 {
		attempt.AttemptNumber = 1
	}
	if math.IsNaN(attempt.ScorePercent) {
		attempt.ScorePercent = 0
	}
	if attempt.PointsScore < 0 {
		attempt.PointsScore = 0
	}
	if attempt.Question == "" {
		attempt.Question = "Unknown Question"
	}
	if record.SubmittedAt != nil {
		attempt.SubmittedAt = *record.SubmittedAt
	}

	return attempt
}
