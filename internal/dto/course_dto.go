package dto

import (
	"time"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// CourseCreateRequest captures the admin course form. The image arrives as a multipart file.
type CourseCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"omitempty,max=5000"`
	Category    string `form:"category" json:"category" validate:"omitempty,max=120"`
	Difficulty  string `form:"difficulty" json:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
}

// CourseUpdateRequest captures partial course updates.
type CourseUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `form:"description" json:"description" validate:"omitempty,max=5000"`
	Category    *string `form:"category" json:"category" validate:"omitempty,max=120"`
	Difficulty  *string `form:"difficulty" json:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
}

// CourseResponse serializes a course for admin endpoints.
type CourseResponse struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Difficulty       string           `json:"difficulty"`
	ImageURL         string           `json:"image_url"`
	EnrolledStudents int64            `json:"enrolled_students"`
	Lessons          []LessonResponse `json:"lessons,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course, enrolled int64) CourseResponse {
	var lessons []LessonResponse
	if len(course.Lessons) > 0 {
		lessons = make([]LessonResponse, 0, len(course.Lessons))
		for _, lesson := range course.Lessons {
			lessons = append(lessons, NewLessonResponse(lesson))
		}
	}

	return CourseResponse{
		ID:               course.ID,
		Title:            course.Title,
		Description:      course.Description,
		Category:         course.Category,
		Difficulty:       course.Difficulty,
		ImageURL:         course.ImageURL,
		EnrolledStudents: enrolled,
		Lessons:          lessons,
		CreatedAt:        course.CreatedAt,
		UpdatedAt:        course.UpdatedAt,
	}
}

// LessonCreateRequest captures the course content form. Files arrive as multipart parts
// named "files"; ContentURL is used for link and video lessons.
type LessonCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"omitempty,max=5000"`
	ContentType string `form:"content_type" json:"content_type" validate:"required,oneof=file link video"`
	ContentURL  string `form:"content_url" json:"content_url" validate:"omitempty,url"`
}

// LessonResponse serializes a lesson.
type LessonResponse struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContentType string    `json:"content_type"`
	ContentURLs []string  `json:"content_urls"`
	Position    int       `json:"position"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewLessonResponse converts a lesson model into a DTO.
func NewLessonResponse(lesson models.Lesson) LessonResponse {
	urls := make([]string, 0, len(lesson.ContentURLs))
	urls = append(urls, lesson.ContentURLs...)

	return LessonResponse{
		ID:          lesson.ID,
		CourseID:    lesson.CourseID,
		Title:       lesson.Title,
		Description: lesson.Description,
		ContentType: lesson.ContentType,
		ContentURLs: urls,
		Position:    lesson.Position,
		UploadedAt:  lesson.UploadedAt,
	}
}
