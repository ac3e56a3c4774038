package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/lms-admin-api/internal/progress"
)

// StudentProgressResponse is the admin report of one student across enrolled courses.
type StudentProgressResponse struct {
	Student StudentIdentity          `json:"student"`
	Summary ProgressSummary          `json:"summary"`
	Courses []CourseProgressResponse `json:"courses"`
}

// StudentIdentity carries the descriptive fields of the reported student.
type StudentIdentity struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Surname            string     `json:"surname"`
	FullName           string     `json:"full_name"`
	Email              string     `json:"email"`
	Status             string     `json:"status"`
	SkillLevel         string     `json:"skill_level"`
	TotalScore         int        `json:"total_score"`
	SubjectsOfInterest []string   `json:"subjects_of_interest"`
	CreatedAt          *time.Time `json:"created_at"`
	LastActivity       *time.Time `json:"last_activity"`
}

// ProgressSummary captures the student-level aggregates.
type ProgressSummary struct {
	TotalCourses            int     `json:"total_courses"`
	CompletedCourses        int     `json:"completed_courses"`
	OverallQuizScore        float64 `json:"overall_quiz_score"`
	OverallPointsPercentage float64 `json:"overall_points_percentage"`
}

// CourseProgressResponse describes the progress of the student in one course.
type CourseProgressResponse struct {
	CourseID                string                   `json:"course_id"`
	CourseName              string                   `json:"course_name"`
	Status                  string                   `json:"status"`
	IsCompleted             bool                     `json:"is_completed"`
	CompletedLessons        int                      `json:"completed_lessons"`
	TotalLessons            int                      `json:"total_lessons"`
	CompletionPercentage    float64                  `json:"completion_percentage"`
	AverageQuizScore        float64                  `json:"average_quiz_score"`
	AveragePointsPercentage float64                  `json:"average_points_percentage"`
	TotalPointsEarned       int                      `json:"total_points_earned"`
	TotalPossiblePoints     int                      `json:"total_possible_points"`
	OverallPointsPercentage float64                  `json:"overall_points_percentage"`
	CompletionDisplay       string                   `json:"completion_display"`
	QuizScoreDisplay        string                   `json:"quiz_score_display"`
	PointsDisplay           string                   `json:"points_display"`
	Lessons                 []LessonProgressResponse `json:"lessons"`
}

// LessonProgressResponse describes the progress of the student on one lesson.
type LessonProgressResponse struct {
	LessonID           string            `json:"lesson_id"`
	LessonName         string            `json:"lesson_name"`
	Status             string            `json:"status"`
	Viewed             bool              `json:"viewed"`
	LastViewedAt       *time.Time        `json:"last_viewed_at"`
	Completed          bool              `json:"completed"`
	CompletedAt        *time.Time        `json:"completed_at"`
	HasQuiz            bool              `json:"has_quiz"`
	AttemptCount       int               `json:"attempt_count"`
	BestScorePercent   float64           `json:"best_score_percent"`
	BestPointsScore    int               `json:"best_points_score"`
	MaxPossiblePoints  int               `json:"max_possible_points"`
	PointsPercentage   float64           `json:"points_percentage"`
	BestSelectedAnswer string            `json:"best_selected_answer"`
	QuizScoreDisplay   string            `json:"quiz_score_display"`
	PointsDisplay      string            `json:"points_display"`
	Attempts           []AttemptResponse `json:"attempts"`
}

// AttemptResponse is one quiz attempt row inside a lesson.
type AttemptResponse struct {
	ID             string     `json:"id"`
	AttemptNumber  int        `json:"attempt_number"`
	IsBest         bool       `json:"is_best"`
	IsCorrect      bool       `json:"is_correct"`
	ScorePercent   float64    `json:"score_percent"`
	PointsScore    int        `json:"points_score"`
	SelectedAnswer string     `json:"selected_answer"`
	CorrectAnswer  string     `json:"correct_answer"`
	Question       string     `json:"question"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	ScoreDisplay   string     `json:"score_display"`
	PointsDisplay  string     `json:"points_display"`
}

// NewStudentProgressResponse flattens a progress summary into the wire representation.
func NewStudentProgressResponse(summary progress.StudentSummary) StudentProgressResponse {
	student := summary.Student
	subjects := make([]string, 0, len(student.SubjectsOfInterest))
	subjects = append(subjects, student.SubjectsOfInterest...)

	courses := make([]CourseProgressResponse, 0, len(summary.Courses))
	for _, course := range summary.Courses {
		courses = append(courses, newCourseProgressResponse(course))
	}

	return StudentProgressResponse{
		Student: StudentIdentity{
			ID:                 student.ID,
			Name:               student.Name,
			Surname:            student.Surname,
			FullName:           student.FullName(),
			Email:              student.Email,
			Status:             student.Status(),
			SkillLevel:         student.SkillLevel,
			TotalScore:         student.TotalScore,
			SubjectsOfInterest: subjects,
			CreatedAt:          student.CreatedAt,
			LastActivity:       student.LastActivity,
		},
		Summary: ProgressSummary{
			TotalCourses:            summary.TotalCourses(),
			CompletedCourses:        summary.CompletedCourses(),
			OverallQuizScore:        summary.OverallQuizScore(),
			OverallPointsPercentage: summary.OverallPointsPercentage(),
		},
		Courses: courses,
	}
}

func newCourseProgressResponse(course progress.CourseView) CourseProgressResponse {
	lessons := make([]LessonProgressResponse, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		lessons = append(lessons, newLessonProgressResponse(lesson))
	}

	return CourseProgressResponse{
		CourseID:                course.CourseID,
		CourseName:              course.CourseName,
		Status:                  course.Status(),
		IsCompleted:             course.IsCompleted(),
		CompletedLessons:        course.CompletedLessons(),
		TotalLessons:            course.TotalLessons(),
		CompletionPercentage:    course.CompletionPercentage(),
		AverageQuizScore:        course.AverageBestScore(),
		AveragePointsPercentage: course.AveragePointsPercentage(),
		TotalPointsEarned:       course.TotalPointsEarned(),
		TotalPossiblePoints:     course.TotalPossiblePoints(),
		OverallPointsPercentage: course.OverallPointsPercentage(),
		CompletionDisplay:       fmt.Sprintf("%d/%d (%.1f%%)", course.CompletedLessons(), course.TotalLessons(), course.CompletionPercentage()),
		QuizScoreDisplay:        fmt.Sprintf("%.1f%%", course.AverageBestScore()),
		PointsDisplay:           fmt.Sprintf("%d/%d (%.1f%%)", course.TotalPointsEarned(), course.TotalPossiblePoints(), course.OverallPointsPercentage()),
		Lessons:                 lessons,
	}
}

func newLessonProgressResponse(lesson progress.LessonView) LessonProgressResponse {
	attempts := make([]AttemptResponse, 0, len(lesson.Attempts))
	for _, attempt := range lesson.Attempts {
		var submittedAt *time.Time
		if !attempt.SubmittedAt.IsZero() {
			value := attempt.SubmittedAt
			submittedAt = &value
		}
		attempts = append(attempts, AttemptResponse{
			ID:             attempt.ID,
			AttemptNumber:  attempt.AttemptNumber,
			IsBest:         attempt.IsBest,
			IsCorrect:      attempt.IsCorrect,
			ScorePercent:   attempt.ScorePercent,
			PointsScore:    attempt.PointsScore,
			SelectedAnswer: attempt.SelectedAnswer,
			CorrectAnswer:  attempt.CorrectAnswer,
			Question:       attempt.Question,
			SubmittedAt:    submittedAt,
			ScoreDisplay:   formatPercent(attempt.ScorePercent),
			PointsDisplay:  formatPoints(attempt.PointsScore),
		})
	}

	quizDisplay := "No quiz"
	pointsDisplay := "No quiz"
	if lesson.HasQuiz() {
		quizDisplay = formatPercent(lesson.BestScorePercent)
		pointsDisplay = fmt.Sprintf("%d/%d", lesson.BestPointsScore, lesson.MaxPossiblePoints)
	}

	return LessonProgressResponse{
		LessonID:           lesson.LessonID,
		LessonName:         lesson.LessonName,
		Status:             lesson.Status(),
		Viewed:             lesson.Viewed,
		LastViewedAt:       lesson.LastViewedAt,
		Completed:          lesson.Completed,
		CompletedAt:        lesson.CompletedAt,
		HasQuiz:            lesson.HasQuiz(),
		AttemptCount:       lesson.AttemptCount,
		BestScorePercent:   lesson.BestScorePercent,
		BestPointsScore:    lesson.BestPointsScore,
		MaxPossiblePoints:  lesson.MaxPossiblePoints,
		PointsPercentage:   lesson.PointsPercentage(),
		BestSelectedAnswer: lesson.BestSelectedAnswer,
		QuizScoreDisplay:   quizDisplay,
		PointsDisplay:      pointsDisplay,
		Attempts:           attempts,
	}
}

func formatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "%"
}

func formatPoints(points int) string {
	if points == 1 {
		return "1 point"
	}
	return fmt.Sprintf("%d points", points)
}

func fullName(name, surname string) string {
	return strings.TrimSpace(name + " " + surname)
}
