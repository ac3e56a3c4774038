package progress

import (
	"math"
	"time"
)

const (
	// LessonPassThreshold is the best-attempt score at which a lesson counts as completed.
	LessonPassThreshold = 80.0
	// CourseCompletionThreshold is the completion percentage at which a course counts as completed.
	CourseCompletionThreshold = 80.0
	// DefaultMaxPoints is the point value of a single lesson quiz.
	DefaultMaxPoints = 1
)

// Course and lesson status labels.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
	StatusViewed     = "Viewed"
	StatusNotStarted = "Not Started"
)

// Attempt is one recorded quiz submission for one lesson by one student.
// A zero SubmittedAt means the timestamp was never recorded.
type Attempt struct {
	ID             string
	LessonID       string
	CourseID       string
	AttemptNumber  int
	IsCorrect      bool
	ScorePercent   float64
	PointsScore    int
	SelectedAnswer string
	CorrectAnswer  string
	Question       string
	SubmittedAt    time.Time
}

// LessonState holds the quiz-independent flags a student has for a lesson.
type LessonState struct {
	Viewed       bool
	LastViewedAt *time.Time
	Completed    bool
	CompletedAt  *time.Time
}

// LessonRef identifies a lesson defined on a course.
type LessonRef struct {
	ID   string
	Name string
}

// Identity carries the descriptive fields of a student shown on the report.
type Identity struct {
	ID                 string
	Name               string
	Surname            string
	Email              string
	CreatedAt          *time.Time
	LastActivity       *time.Time
	SkillLevel         string
	TotalScore         int
	SubjectsOfInterest []string
	Deleted            bool
}

// FullName joins name and surname.
func (i Identity) FullName() string {
	if i.Surname == "" {
		return i.Name
	}
	if i.Name == "" {
		return i.Surname
	}
	return i.Name + " " + i.Surname
}

// Status reports whether the student record is active.
func (i Identity) Status() string {
	if i.Deleted {
		return "Deleted"
	}
	return "Active"
}

func clampPercent(value float64) float64 {
	switch {
	case math.IsNaN(value), value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

func percentOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return clampPercent(part * 100 / total)
}
