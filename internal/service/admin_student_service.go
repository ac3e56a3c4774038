package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

// ErrStudentEmailTaken indicates another student already uses the email address.
var ErrStudentEmailTaken = errors.New("student email already registered")

// ProgressInvalidator drops cached progress reports after writes that change them.
type ProgressInvalidator interface {
	Invalidate(ctx context.Context, studentID, courseID, kind string)
}

// AdminStudentService orchestrates admin student management use cases.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	Get(ctx context.Context, id string) (dto.AdminStudentResponse, error)
	Create(ctx context.Context, payload dto.AdminStudentCreateRequest) (dto.AdminStudentResponse, error)
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, id string, payload dto.AdminEnrollRequest) error
}

type adminStudentService struct {
	students  repository.StudentRepository
	courses   repository.CourseRepository
	progress  ProgressInvalidator
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminStudentService constructs the admin student service.
func NewAdminStudentService(students repository.StudentRepository, courses repository.CourseRepository, progress ProgressInvalidator, validator *validator.Validate, logger zerolog.Logger) AdminStudentService {
	return &adminStudentService{
		students:  students,
		courses:   courses,
		progress:  progress,
		validator: validator,
		logger:    logger.With().Str("component", "admin_student_service").Logger(),
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	filter := repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	counts, err := s.students.EnrollmentCounts(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count enrollments")
		counts = map[string]int{}
	}

	responses := make([]dto.AdminStudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewAdminStudentResponse(student, counts[student.ID]))
	}

	return dto.AdminStudentListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(maxInt(req.Page, 1), req.PageSize, total),
	}, nil
}

func (s *adminStudentService) Get(ctx context.Context, id string) (dto.AdminStudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	courseIDs, err := s.students.EnrolledCourseIDs(ctx, id)
	if err != nil {
		return dto.AdminStudentResponse{}, err
	}

	return dto.NewAdminStudentResponse(student, len(courseIDs)), nil
}

func (s *adminStudentService) Create(ctx context.Context, payload dto.AdminStudentCreateRequest) (dto.AdminStudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if _, err := s.students.GetByEmail(ctx, email); err == nil {
		return dto.AdminStudentResponse{}, ErrStudentEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AdminStudentResponse{}, err
	}

	skill := strings.TrimSpace(payload.SkillLevel)
	if skill == "" {
		skill = models.SkillLevelBeginner
	}

	student := models.Student{
		Name:               strings.TrimSpace(payload.Name),
		Surname:            strings.TrimSpace(payload.Surname),
		Email:              email,
		SkillLevel:         skill,
		SubjectsOfInterest: datatypes.JSONSlice[string](normalizeSubjects(payload.SubjectsOfInterest)),
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student created")
	return dto.NewAdminStudentResponse(student, 0), nil
}

func (s *adminStudentService) Delete(ctx context.Context, id string) error {
	if err := s.students.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, id, "", "")
	}
	s.logger.Info().Str("student_id", id).Msg("student soft deleted")
	return nil
}

func (s *adminStudentService) Enroll(ctx context.Context, id string, payload dto.AdminEnrollRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if student.IsDeleted {
		return ErrStudentNotFound
	}

	courseID := strings.TrimSpace(payload.CourseID)
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if err := s.students.Enroll(ctx, id, courseID); err != nil {
		return err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, id, courseID, ProgressEventEnrollment)
	}
	return nil
}

func normalizeSubjects(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	result := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		trimmed := strings.TrimSpace(subject)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
