package progress

import "time"

// AttemptView is an attempt as presented on a lesson row. IsBest marks the attempt chosen
// by SelectBestAttempt for this snapshot only.
type AttemptView struct {
	Attempt
	IsBest bool
}

// LessonView is the derived progress of one student on one lesson.
type LessonView struct {
	LessonID           string
	LessonName         string
	Viewed             bool
	LastViewedAt       *time.Time
	Completed          bool
	AttemptCount       int
	BestScorePercent   float64
	BestPointsScore    int
	MaxPossiblePoints  int
	BestSelectedAnswer string
	CompletedAt        *time.Time
	Attempts           []AttemptView
}

// BuildLesson merges the basic state and the attempts of one lesson into a LessonView.
// A nil state means the student has no basic-state record for the lesson.
func BuildLesson(lessonID, lessonName string, state *LessonState, attempts []Attempt) LessonView {
	if lessonName == "" {
		lessonName = lessonID
	}

	view := LessonView{
		LessonID:          lessonID,
		LessonName:        lessonName,
		AttemptCount:      len(attempts),
		MaxPossiblePoints: DefaultMaxPoints,
		Attempts:          make([]AttemptView, len(attempts)),
	}

	bestIndex, hasBest := SelectBestAttempt(attempts)
	for i, attempt := range attempts {
		view.Attempts[i] = AttemptView{Attempt: attempt, IsBest: hasBest && i == bestIndex}
	}

	if state != nil {
		view.Viewed = state.Viewed
		view.LastViewedAt = copyTime(state.LastViewedAt)
		view.Completed = state.Completed
		view.CompletedAt = copyTime(state.CompletedAt)
	}

	if hasBest {
		best := attempts[bestIndex]
		view.BestScorePercent = best.ScorePercent
		view.BestPointsScore = best.PointsScore
		view.BestSelectedAnswer = best.SelectedAnswer

		if best.ScorePercent >= LessonPassThreshold {
			view.Completed = true
		}
		if view.CompletedAt == nil && !best.SubmittedAt.IsZero() {
			submitted := best.SubmittedAt
			view.CompletedAt = &submitted
		}
	}

	return view
}

// BestAttempt returns the attempt marked as best, if any.
func (l LessonView) BestAttempt() (AttemptView, bool) {
	for _, attempt := range l.Attempts {
		if attempt.IsBest {
			return attempt, true
		}
	}
	return AttemptView{}, false
}

// HasQuiz reports whether the student attempted the lesson quiz at least once.
func (l LessonView) HasQuiz() bool {
	return l.AttemptCount > 0
}

// PointsPercentage is the best points score relative to the lesson maximum.
func (l LessonView) PointsPercentage() float64 {
	return percentOf(float64(l.BestPointsScore), float64(l.MaxPossiblePoints))
}

// Status summarises the lesson row for display.
func (l LessonView) Status() string {
	switch {
	case l.Completed:
		return StatusCompleted
	case l.Viewed:
		return StatusViewed
	default:
		return StatusNotStarted
	}
}

// earnedPoints is the lesson's contribution to course point totals.
func (l LessonView) earnedPoints() int {
	maxPoints := l.MaxPossiblePoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	switch {
	case l.BestPointsScore < 0:
		return 0
	case l.BestPointsScore > maxPoints:
		return maxPoints
	default:
		return l.BestPointsScore
	}
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
