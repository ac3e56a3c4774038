package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/middleware"
	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/observability"
	"github.com/noah-isme/lms-admin-api/internal/progress"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

// ProgressSubject is the NATS subject progress change events are published on.
const ProgressSubject = "lms.progress.updated"

// Progress event kinds.
const (
	ProgressEventAttempt     = "attempt"
	ProgressEventLessonState = "lesson_state"
	ProgressEventEnrollment  = "enrollment"
)

var (
	// ErrStudentNotFound indicates the student does not exist or was deleted.
	ErrStudentNotFound = errors.New("student not found")
	// ErrLessonNotFound indicates the lesson does not exist in the course.
	ErrLessonNotFound = errors.New("lesson not found")
)

// ProgressEvent is published after every write that changes a student's report.
type ProgressEvent struct {
	StudentID     string    `json:"student_id"`
	CourseID      string    `json:"course_id,omitempty"`
	LessonID      string    `json:"lesson_id,omitempty"`
	Kind          string    `json:"kind"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// StudentProgressService serves per-student progress reports and records the activity
// they are derived from.
type StudentProgressService interface {
	GetReport(ctx context.Context, studentID string) (dto.StudentProgressResponse, bool, error)
	RecordAttempt(ctx context.Context, studentID, courseID, lessonID string, payload dto.QuizAttemptCreateRequest) (dto.QuizAttemptResponse, error)
	UpdateLessonState(ctx context.Context, studentID, courseID, lessonID string, payload dto.LessonStateUpdateRequest) (dto.LessonStateResponse, error)
	Invalidate(ctx context.Context, studentID, courseID, kind string)
}

// StudentProgressDeps groups the collaborators of the progress service.
type StudentProgressDeps struct {
	Students    repository.StudentRepository
	Lessons     repository.LessonRepository
	Attempts    repository.QuizAttemptRepository
	States      repository.LessonStateRepository
	Source      progress.Source
	Cache       *redis.Client
	CacheTTL    time.Duration
	NATS        *nats.Conn
	Concurrency int
	Validator   *validator.Validate
}

type studentProgressService struct {
	students  repository.StudentRepository
	lessons   repository.LessonRepository
	attempts  repository.QuizAttemptRepository
	states    repository.LessonStateRepository
	builder   *progress.Builder
	cache     *redis.Client
	cacheTTL  time.Duration
	nats      *nats.Conn
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStudentProgressService builds the progress report service.
func NewStudentProgressService(deps StudentProgressDeps, logger zerolog.Logger) StudentProgressService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	builder := progress.NewBuilder(deps.Source, progress.BuilderOptions{
		Concurrency: deps.Concurrency,
		Logger:      logger,
		OnFetchError: func(scope string, _ error) {
			observability.ProgressFetchFailures().WithLabelValues(scope).Inc()
		},
	})

	return &studentProgressService{
		students:  deps.Students,
		lessons:   deps.Lessons,
		attempts:  deps.Attempts,
		states:    deps.States,
		builder:   builder,
		cache:     deps.Cache,
		cacheTTL:  ttl,
		nats:      deps.NATS,
		validator: deps.Validator,
		logger:    logger.With().Str("component", "student_progress_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/lms-admin-api/internal/service/progress"),
		now:       time.Now,
	}
}

func progressCacheKey(studentID string) string {
	return fmt.Sprintf("progress:student:%s", studentID)
}

// progressGenerationKey counts invalidations of a student's report. A report is only cached
// when the counter did not move while it was being built.
func progressGenerationKey(studentID string) string {
	return fmt.Sprintf("progress:student:%s:gen", studentID)
}

var errStaleReport = errors.New("progress changed while the report was built")

func (s *studentProgressService) GetReport(ctx context.Context, studentID string) (dto.StudentProgressResponse, bool, error) {
	studentID = strings.TrimSpace(studentID)
	ctx, span := s.tracer.Start(ctx, "progress.report", trace.WithAttributes(attribute.String("progress.student_id", studentID)))
	defer span.End()

	if studentID == "" {
		return dto.StudentProgressResponse{}, false, ErrStudentNotFound
	}

	cacheKey := progressCacheKey(studentID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("student_id", studentID).Msg("progress cache hit")
				observability.ProgressReports().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("progress.cache_hit", true))
				return response, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProgressResponse{}, false, ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student lookup failed")
		return dto.StudentProgressResponse{}, false, err
	}

	generation, cacheable := s.cacheGeneration(ctx, student.ID)

	start := time.Now()
	summary := s.builder.Build(ctx, student.ID)
	observability.ProgressBuildDuration().Observe(time.Since(start).Seconds())

	summary.Student = identityFromStudent(student)
	response := dto.NewStudentProgressResponse(summary)
	span.SetAttributes(
		attribute.Int("progress.courses", len(response.Courses)),
		attribute.Bool("progress.cache_hit", false),
	)

	if cacheable {
		if payload, err := json.Marshal(response); err == nil {
			s.storeReport(ctx, student.ID, generation, payload)
		}
	}

	observability.ProgressReports().WithLabelValues("miss").Inc()
	return response, false, nil
}

func (s *studentProgressService) RecordAttempt(ctx context.Context, studentID, courseID, lessonID string, payload dto.QuizAttemptCreateRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "progress.record_attempt", trace.WithAttributes(
		attribute.String("progress.student_id", studentID),
		attribute.String("progress.lesson_id", lessonID),
	))
	defer span.End()

	if _, err := s.activeStudent(ctx, studentID); err != nil {
		return dto.QuizAttemptResponse{}, err
	}
	if err := s.lessonExists(ctx, courseID, lessonID); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	submittedAt := s.now().UTC()
	attempt := models.QuizAttempt{
		CourseID:       courseID,
		LessonID:       lessonID,
		StudentID:      studentID,
		IsCorrect:      strings.EqualFold(strings.TrimSpace(payload.SelectedAnswer), strings.TrimSpace(payload.CorrectAnswer)),
		QuizScore:      payload.QuizScore,
		Score:          payload.Score,
		SelectedAnswer: strings.TrimSpace(payload.SelectedAnswer),
		CorrectAnswer:  strings.TrimSpace(payload.CorrectAnswer),
		Question:       strings.TrimSpace(payload.Question),
		SubmittedAt:    &submittedAt,
	}
	if err := s.attempts.Create(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store attempt failed")
		return dto.QuizAttemptResponse{}, fmt.Errorf("store quiz attempt: %w", err)
	}

	s.touch(ctx, studentID, submittedAt)
	s.Invalidate(ctx, studentID, courseID, ProgressEventAttempt)
	s.publish(ctx, ProgressEvent{
		StudentID:  studentID,
		CourseID:   courseID,
		LessonID:   lessonID,
		Kind:       ProgressEventAttempt,
		OccurredAt: submittedAt,
	})

	return dto.NewQuizAttemptResponse(attempt), nil
}

func (s *studentProgressService) UpdateLessonState(ctx context.Context, studentID, courseID, lessonID string, payload dto.LessonStateUpdateRequest) (dto.LessonStateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.update_lesson_state", trace.WithAttributes(
		attribute.String("progress.student_id", studentID),
		attribute.String("progress.lesson_id", lessonID),
	))
	defer span.End()

	if _, err := s.activeStudent(ctx, studentID); err != nil {
		return dto.LessonStateResponse{}, err
	}
	if err := s.lessonExists(ctx, courseID, lessonID); err != nil {
		return dto.LessonStateResponse{}, err
	}

	now := s.now().UTC()
	state := models.LessonState{StudentID: studentID, LessonID: lessonID}
	if payload.Viewed {
		state.Viewed = true
		state.LastViewedAt = &now
	}
	if payload.Completed {
		state.Completed = true
		state.CompletedAt = &now
	}

	if err := s.states.Upsert(ctx, &state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store lesson state failed")
		return dto.LessonStateResponse{}, fmt.Errorf("store lesson state: %w", err)
	}

	s.touch(ctx, studentID, now)
	s.Invalidate(ctx, studentID, courseID, ProgressEventLessonState)
	s.publish(ctx, ProgressEvent{
		StudentID:  studentID,
		CourseID:   courseID,
		LessonID:   lessonID,
		Kind:       ProgressEventLessonState,
		OccurredAt: now,
	})

	return dto.NewLessonStateResponse(state), nil
}

// Invalidate drops the cached report of a student and bumps its generation so a report built
// concurrently is not cached. Writers outside this service (enrollment) call it directly.
func (s *studentProgressService) Invalidate(ctx context.Context, studentID, courseID, kind string) {
	if s.cache != nil {
		generationKey := progressGenerationKey(studentID)
		_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, generationKey)
			pipe.Expire(ctx, generationKey, 2*s.cacheTTL)
			pipe.Del(ctx, progressCacheKey(studentID))
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to invalidate progress cache")
		}
	}

	if kind == ProgressEventEnrollment {
		s.publish(ctx, ProgressEvent{
			StudentID:  studentID,
			CourseID:   courseID,
			Kind:       kind,
			OccurredAt: s.now().UTC(),
		})
	}
}

// cacheGeneration reads the invalidation counter before a build. The report is not cached when
// the counter cannot be read.
func (s *studentProgressService) cacheGeneration(ctx context.Context, studentID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	generation, err := s.cache.Get(ctx, progressGenerationKey(studentID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("failed to read progress cache generation")
		return 0, false
	}
	return generation, true
}

// storeReport caches payload unless the student's generation moved since generation was read.
func (s *studentProgressService) storeReport(ctx context.Context, studentID string, generation int64, payload []byte) {
	generationKey := progressGenerationKey(studentID)
	err := s.cache.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleReport
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, progressCacheKey(studentID), payload, s.cacheTTL)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleReport), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug().Str("student_id", studentID).Msg("progress changed during build; report not cached")
	default:
		s.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}

func (s *studentProgressService) activeStudent(ctx context.Context, studentID string) (models.Student, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	if student.IsDeleted {
		return models.Student{}, ErrStudentNotFound
	}
	return student, nil
}

func (s *studentProgressService) lessonExists(ctx context.Context, courseID, lessonID string) error {
	if _, err := s.lessons.GetByID(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}
	return nil
}

func (s *studentProgressService) touch(ctx context.Context, studentID string, at time.Time) {
	if err := s.students.TouchActivity(ctx, studentID, at); err != nil {
		s.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to update last activity")
	}
}

func (s *studentProgressService) publish(ctx context.Context, event ProgressEvent) {
	if s.nats == nil {
		return
	}
	event.CorrelationID = middleware.CorrelationIDFromContext(ctx)

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode progress event")
		return
	}

	if err := s.nats.Publish(ProgressSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("kind", event.Kind).Msg("failed to publish progress event")
		return
	}

	observability.ProgressEvents().WithLabelValues(event.Kind).Inc()
}

func identityFromStudent(student models.Student) progress.Identity {
	createdAt := student.CreatedAt
	var created *time.Time
	if !createdAt.IsZero() {
		created = &createdAt
	}

	subjects := make([]string, 0, len(student.SubjectsOfInterest))
	subjects = append(subjects, student.SubjectsOfInterest...)

	return progress.Identity{
		ID:                 student.ID,
		Name:               student.Name,
		Surname:            student.Surname,
		Email:              student.Email,
		CreatedAt:          created,
		LastActivity:       student.LastActivity,
		SkillLevel:         student.SkillLevel,
		TotalScore:         student.TotalScore,
		SubjectsOfInterest: subjects,
		Deleted:            student.IsDeleted,
	}
}
