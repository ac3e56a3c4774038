package dto

import (
	"time"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta computes page counts for a list response.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 1
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
		if totalPages == 0 {
			totalPages = 1
		}
	}

	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// AdminStudentListRequest defines filters for listing students.
type AdminStudentListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// AdminStudentCreateRequest captures the admin form for registering a student.
type AdminStudentCreateRequest struct {
	Name               string   `json:"name" validate:"required,max=100"`
	Surname            string   `json:"surname" validate:"required,max=100"`
	Email              string   `json:"email" validate:"required,email,max=255"`
	SkillLevel         string   `json:"skill_level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	SubjectsOfInterest []string `json:"subjects_of_interest" validate:"omitempty,dive,required,max=100"`
}

// AdminEnrollRequest enrolls a student in a course.
type AdminEnrollRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// AdminStudentResponse serializes student data for admin endpoints.
type AdminStudentResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Surname               string     `json:"surname"`
	FullName              string     `json:"full_name"`
	Email                 string     `json:"email"`
	Status                string     `json:"status"`
	SkillLevel            string     `json:"skill_level"`
	TotalScore            int        `json:"total_score"`
	SubjectsOfInterest    []string   `json:"subjects_of_interest"`
	EnrolledCoursesCount  int        `json:"enrolled_courses_count"`
	CreatedAt             time.Time  `json:"created_at"`
	LastActivity          *time.Time `json:"last_activity"`
	LastActivityFormatted string     `json:"last_activity_formatted"`
}

// AdminStudentListResponse wraps a paginated student response.
type AdminStudentListResponse struct {
	Items      []AdminStudentResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// NewAdminStudentResponse converts a student model into a DTO.
func NewAdminStudentResponse(student models.Student, enrolled int) AdminStudentResponse {
	subjects := make([]string, 0, len(student.SubjectsOfInterest))
	subjects = append(subjects, student.SubjectsOfInterest...)

	return AdminStudentResponse{
		ID:                    student.ID,
		Name:                  student.Name,
		Surname:               student.Surname,
		FullName:              fullName(student.Name, student.Surname),
		Email:                 student.Email,
		Status:                studentStatus(student.IsDeleted),
		SkillLevel:            student.SkillLevel,
		TotalScore:            student.TotalScore,
		SubjectsOfInterest:    subjects,
		EnrolledCoursesCount:  enrolled,
		CreatedAt:             student.CreatedAt,
		LastActivity:          student.LastActivity,
		LastActivityFormatted: formatActivity(student.LastActivity),
	}
}

func formatActivity(at *time.Time) string {
	if at == nil || at.IsZero() {
		return "Never"
	}
	return at.Format("Jan 02, 2006 15:04")
}

func studentStatus(deleted bool) string {
	if deleted {
		return "Deleted"
	}
	return "Active"
}

// ScoreDistributionResponse buckets quiz scores into percentage ranges.
type ScoreDistributionResponse map[string]int64

// WeeklyEngagementPoint counts quiz attempts submitted in a week starting on Monday (UTC).
type WeeklyEngagementPoint struct {
	WeekStart time.Time `json:"week_start"`
	Attempts  int64     `json:"attempts"`
	Students  int       `json:"students"`
}

// AdminDashboardResponse is the admin home overview.
type AdminDashboardResponse struct {
	ActiveStudents    int64                     `json:"active_students"`
	Courses           int64                     `json:"courses"`
	RecentAttempts    int64                     `json:"recent_attempts"`
	PassRate          float64                   `json:"pass_rate"`
	ScoreDistribution ScoreDistributionResponse `json:"score_distribution"`
	WeeklyEngagement  []WeeklyEngagementPoint   `json:"weekly_engagement"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	CacheHit          bool                      `json:"cache_hit"`
}
