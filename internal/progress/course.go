package progress

// CourseView is the derived progress of one student on one course. Metrics are computed on
// read from Lessons.
type CourseView struct {
	CourseID   string
	CourseName string
	Lessons    []LessonView
}

// AggregateCourse wraps the lesson rows of a course. An empty name falls back to the id.
func AggregateCourse(courseID, courseName string, lessons []LessonView) CourseView {
	if courseName == "" {
		courseName = courseID
	}
	if lessons == nil {
		lessons = []LessonView{}
	}
	return CourseView{CourseID: courseID, CourseName: courseName, Lessons: lessons}
}

// CompletedLessons counts lessons marked completed.
func (c CourseView) CompletedLessons() int {
	count := 0
	for _, lesson := range c.Lessons {
		if lesson.Completed {
			count++
		}
	}
	return count
}

// TotalLessons is the number of lessons defined on the course.
func (c CourseView) TotalLessons() int {
	return len(c.Lessons)
}

// CompletionPercentage is the share of completed lessons, 0 for a course without lessons.
func (c CourseView) CompletionPercentage() float64 {
	return percentOf(float64(c.CompletedLessons()), float64(c.TotalLessons()))
}

// AverageBestScore is the mean best score over completed lessons only.
func (c CourseView) AverageBestScore() float64 {
	var total float64
	count := 0
	for _, lesson := range c.Lessons {
		if !lesson.Completed {
			continue
		}
		total += clampPercent(lesson.BestScorePercent)
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// AveragePointsPercentage is the mean lesson points percentage over completed lessons only.
func (c CourseView) AveragePointsPercentage() float64 {
	var total float64
	count := 0
	for _, lesson := range c.Lessons {
		if !lesson.Completed {
			continue
		}
		total += lesson.PointsPercentage()
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// TotalPointsEarned sums the best points of every lesson.
func (c CourseView) TotalPointsEarned() int {
	total := 0
	for _, lesson := range c.Lessons {
		total += lesson.earnedPoints()
	}
	return total
}

// TotalPossiblePoints is one point per lesson.
func (c CourseView) TotalPossiblePoints() int {
	return c.TotalLessons() * DefaultMaxPoints
}

// OverallPointsPercentage is earned points over possible points, 0 for a course without lessons.
func (c CourseView) OverallPointsPercentage() float64 {
	return percentOf(float64(c.TotalPointsEarned()), float64(c.TotalPossiblePoints()))
}

// IsCompleted reports whether the completion percentage reaches the course bar.
func (c CourseView) IsCompleted() bool {
	return c.CompletionPercentage() >= CourseCompletionThreshold
}

// Status is "Completed" or "In Progress".
func (c CourseView) Status() string {
	if c.IsCompleted() {
		return StatusCompleted
	}
	return StatusInProgress
}
