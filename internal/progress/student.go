package progress

// StudentSummary is the full progress report of one student.
type StudentSummary struct {
	Student Identity
	Courses []CourseView
}

// Summarize wraps the course views of a student in enrollment order.
func Summarize(student Identity, courses []CourseView) StudentSummary {
	if courses == nil {
		courses = []CourseView{}
	}
	return StudentSummary{Student: student, Courses: courses}
}

// TotalCourses is the number of enrolled courses.
func (s StudentSummary) TotalCourses() int {
	return len(s.Courses)
}

// CompletedCourses counts courses at or above the course completion bar.
func (s StudentSummary) CompletedCourses() int {
	count := 0
	for _, course := range s.Courses {
		if course.IsCompleted() {
			count++
		}
	}
	return count
}

// OverallQuizScore averages each course's AverageBestScore across all enrolled courses.
func (s StudentSummary) OverallQuizScore() float64 {
	if len(s.Courses) == 0 {
		return 0
	}
	var total float64
	for _, course := range s.Courses {
		total += course.AverageBestScore()
	}
	return total / float64(len(s.Courses))
}

// OverallPointsPercentage averages each course's OverallPointsPercentage.
func (s StudentSummary) OverallPointsPercentage() float64 {
	if len(s.Courses) == 0 {
		return 0
	}
	var total float64
	for _, course := range s.Courses {
		total += course.OverallPointsPercentage()
	}
	return total / float64(len(s.Courses))
}
