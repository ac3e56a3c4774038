package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrLessonContentMissing indicates a lesson carries neither files nor a link.
	ErrLessonContentMissing = errors.New("lesson requires uploaded files or a content url")
)

// CourseService manages courses and their lessons from the admin panel.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id string) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest, image *multipart.FileHeader) (dto.CourseResponse, error)
	Update(ctx context.Context, id string, payload dto.CourseUpdateRequest, image *multipart.FileHeader) (dto.CourseResponse, error)
	Delete(ctx context.Context, id string) error

	ListLessons(ctx context.Context, courseID string) ([]dto.LessonResponse, error)
	CreateLesson(ctx context.Context, courseID string, payload dto.LessonCreateRequest, files []*multipart.FileHeader) (dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, courseID, lessonID string) error
}

type courseService struct {
	courses   repository.CourseRepository
	lessons   repository.LessonRepository
	students  repository.StudentRepository
	uploads   UploadService
	progress  ProgressInvalidator
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, lessons repository.LessonRepository, students repository.StudentRepository, uploads UploadService, progress ProgressInvalidator, validator *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		lessons:   lessons,
		students:  students,
		uploads:   uploads,
		progress:  progress,
		validator: validator,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.students.CountByCourse(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count enrolled students")
		counts = map[string]int64{}
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course, counts[course.ID]))
	}

	return responses, nil
}

func (s *courseService) Get(ctx context.Context, id string) (dto.CourseResponse, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	counts, err := s.students.CountByCourse(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count enrolled students")
	}

	return dto.NewCourseResponse(course, counts[course.ID]), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, image *multipart.FileHeader) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:       strings.TrimSpace(payload.Title),
		Description: s.sanitize(payload.Description),
		Category:    strings.TrimSpace(payload.Category),
		Difficulty:  strings.TrimSpace(payload.Difficulty),
	}

	if image != nil {
		stored, err := s.uploads.Store(ctx, FolderCourseImages, UploadKindImage, image, "")
		if err != nil {
			return dto.CourseResponse{}, err
		}
		course.ImageURL = stored.URL
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		s.uploads.Remove(ctx, course.ImageURL)
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Str("course_id", course.ID).Msg("course created")
	return dto.NewCourseResponse(course, 0), nil
}

func (s *courseService) Update(ctx context.Context, id string, payload dto.CourseUpdateRequest, image *multipart.FileHeader) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		course.Description = s.sanitize(*payload.Description)
	}
	if payload.Category != nil {
		course.Category = strings.TrimSpace(*payload.Category)
	}
	if payload.Difficulty != nil {
		course.Difficulty = strings.TrimSpace(*payload.Difficulty)
	}

	previousImage := course.ImageURL
	if image != nil {
		stored, err := s.uploads.Store(ctx, FolderCourseImages, UploadKindImage, image, course.ID)
		if err != nil {
			return dto.CourseResponse{}, err
		}
		course.ImageURL = stored.URL
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		if course.ImageURL != previousImage {
			s.uploads.Remove(ctx, course.ImageURL)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if course.ImageURL != previousImage {
		s.uploads.Remove(ctx, previousImage)
	}
	s.invalidateEnrolled(ctx, course.ID)

	return s.Get(ctx, course.ID)
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	course, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	enrolled, err := s.students.EnrolledStudentIDs(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", id).Msg("failed to list enrolled students")
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.uploads.Remove(ctx, course.ImageURL)
	for _, lesson := range course.Lessons {
		for _, url := range lesson.ContentURLs {
			s.uploads.Remove(ctx, url)
		}
	}
	for _, studentID := range enrolled {
		s.invalidate(ctx, studentID, id)
	}

	s.logger.Info().Str("course_id", id).Int("lessons", len(course.Lessons)).Msg("course deleted")
	return nil
}

func (s *courseService) ListLessons(ctx context.Context, courseID string) ([]dto.LessonResponse, error) {
	if _, err := s.load(ctx, courseID); err != nil {
		return nil, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, dto.NewLessonResponse(lesson))
	}
	return responses, nil
}

func (s *courseService) CreateLesson(ctx context.Context, courseID string, payload dto.LessonCreateRequest, files []*multipart.FileHeader) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.load(ctx, courseID); err != nil {
		return dto.LessonResponse{}, err
	}

	urls := make([]string, 0, len(files)+1)
	for _, file := range files {
		stored, err := s.uploads.Store(ctx, FolderCourseContents, UploadKindLessonFile, file, courseID)
		if err != nil {
			for _, url := range urls {
				s.uploads.Remove(ctx, url)
			}
			return dto.LessonResponse{}, err
		}
		urls = append(urls, stored.URL)
	}
	if link := strings.TrimSpace(payload.ContentURL); link != "" {
		urls = append(urls, link)
	}
	if len(urls) == 0 {
		return dto.LessonResponse{}, ErrLessonContentMissing
	}

	lesson := models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: s.sanitize(payload.Description),
		ContentType: payload.ContentType,
		ContentURLs: datatypes.JSONSlice[string](urls),
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		for _, url := range urls {
			s.uploads.Remove(ctx, url)
		}
		return dto.LessonResponse{}, err
	}

	s.invalidateEnrolled(ctx, courseID)
	return dto.NewLessonResponse(lesson), nil
}

func (s *courseService) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	lesson, err := s.lessons.GetByID(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	if err := s.lessons.Delete(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	for _, url := range lesson.ContentURLs {
		s.uploads.Remove(ctx, url)
	}
	s.invalidateEnrolled(ctx, courseID)
	return nil
}

func (s *courseService) load(ctx context.Context, id string) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (s *courseService) sanitize(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// course names and lesson lists feed every enrolled student's report
func (s *courseService) invalidateEnrolled(ctx context.Context, courseID string) {
	if s.progress == nil {
		return
	}
	studentIDs, err := s.students.EnrolledStudentIDs(ctx, courseID)
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to list enrolled students")
		return
	}
	for _, studentID := range studentIDs {
		s.invalidate(ctx, studentID, courseID)
	}
}

func (s *courseService) invalidate(ctx context.Context, studentID, courseID string) {
	if s.progress != nil {
		s.progress.Invalidate(ctx, studentID, courseID, "")
	}
}
