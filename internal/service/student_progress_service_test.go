package service

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/progress"
	"github.com/noah-isme/lms-admin-api/internal/repository"
)

type progressFixture struct {
	svc      StudentProgressService
	redis    *redis.Client
	mini     *miniredis.Miniredis
	db       *gorm.DB
	student  models.Student
	course   models.Course
	lessons  []models.Lesson
	students repository.StudentRepository
}

func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()

	mini := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	db := setupServiceDB(t)
	ctx := context.Background()

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	lessons := repository.NewLessonRepository(db)
	attempts := repository.NewQuizAttemptRepository(db)
	states := repository.NewLessonStateRepository(db)

	student := models.Student{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com", SkillLevel: models.SkillLevelBeginner}
	require.NoError(t, students.Create(ctx, &student))

	course := models.Course{Title: "Algebra"}
	require.NoError(t, courses.Create(ctx, &course))

	lessonRows := []models.Lesson{
		{CourseID: course.ID, Title: "Variables", ContentType: models.LessonContentLink},
		{CourseID: course.ID, Title: "Equations", ContentType: models.LessonContentLink},
	}
	for i := range lessonRows {
		require.NoError(t, lessons.Create(ctx, &lessonRows[i]))
	}
	require.NoError(t, students.Enroll(ctx, student.ID, course.ID))

	svc := NewStudentProgressService(StudentProgressDeps{
		Students:    students,
		Lessons:     lessons,
		Attempts:    attempts,
		States:      states,
		Source:      repository.NewProgressSource(students, courses, lessons, attempts, states),
		Cache:       redisClient,
		CacheTTL:    time.Minute,
		Concurrency: 2,
		Validator:   testValidator(),
	}, testLogger())

	return progressFixture{
		svc:      svc,
		redis:    redisClient,
		mini:     mini,
		db:       db,
		student:  student,
		course:   course,
		lessons:  lessonRows,
		students: students,
	}
}

func attemptPayload(score float64, points int) dto.QuizAttemptCreateRequest {
	return dto.QuizAttemptCreateRequest{
		Question:       "2x = 4, x = ?",
		SelectedAnswer: "2",
		CorrectAnswer:  "2",
		QuizScore:      score,
		Score:          points,
	}
}

func TestStudentProgressServiceReportAndCache(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RecordAttempt(ctx, fx.student.ID, fx.course.ID, fx.lessons[0].ID, attemptPayload(60, 0))
	require.NoError(t, err)
	second, err := fx.svc.RecordAttempt(ctx, fx.student.ID, fx.course.ID, fx.lessons[0].ID, attemptPayload(90, 1))
	require.NoError(t, err)
	require.Equal(t, 2, second.Attempt)
	require.True(t, second.IsCorrect)

	report, hit, err := fx.svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "Ada Lovelace", report.Student.FullName)
	require.Equal(t, "Active", report.Student.Status)
	require.Len(t, report.Courses, 1)

	course := report.Courses[0]
	require.Equal(t, "Algebra", course.CourseName)
	require.Equal(t, 2, course.TotalLessons)
	require.Equal(t, 1, course.CompletedLessons)
	require.InDelta(t, 50.0, course.CompletionPercentage, 1e-9)
	require.InDelta(t, 90.0, course.AverageQuizScore, 1e-9)
	require.Equal(t, "1/2 (50.0%)", course.CompletionDisplay)

	lesson := course.Lessons[0]
	require.True(t, lesson.Completed)
	require.Equal(t, 2, lesson.AttemptCount)
	require.False(t, lesson.Attempts[0].IsBest)
	require.True(t, lesson.Attempts[1].IsBest)
	require.Equal(t, "90%", lesson.QuizScoreDisplay)
	require.Equal(t, "No quiz", course.Lessons[1].QuizScoreDisplay)

	require.True(t, fx.mini.Exists(progressCacheKey(fx.student.ID)))

	cached, hit, err := fx.svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, report.Summary, cached.Summary)
}

func TestStudentProgressServiceWritesInvalidateCache(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, _, err := fx.svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.True(t, fx.mini.Exists(progressCacheKey(fx.student.ID)))

	state, err := fx.svc.UpdateLessonState(ctx, fx.student.ID, fx.course.ID, fx.lessons[1].ID, dto.LessonStateUpdateRequest{Viewed: true, Completed: true})
	require.NoError(t, err)
	require.True(t, state.Viewed)
	require.NotNil(t, state.CompletedAt)
	require.False(t, fx.mini.Exists(progressCacheKey(fx.student.ID)))

	report, hit, err := fx.svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.False(t, hit)
	require.True(t, report.Courses[0].Lessons[1].Completed)
	require.Equal(t, progress.StatusCompleted, report.Courses[0].Lessons[1].Status)
	require.NotNil(t, report.Student.LastActivity)
}

func TestStudentProgressServiceCompletedAtIsSticky(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	first, err := fx.svc.UpdateLessonState(ctx, fx.student.ID, fx.course.ID, fx.lessons[0].ID, dto.LessonStateUpdateRequest{Completed: true})
	require.NoError(t, err)
	require.False(t, first.Viewed)

	again, err := fx.svc.UpdateLessonState(ctx, fx.student.ID, fx.course.ID, fx.lessons[0].ID, dto.LessonStateUpdateRequest{Viewed: true, Completed: true})
	require.NoError(t, err)
	require.True(t, again.Viewed)
	require.True(t, first.CompletedAt.Equal(*again.CompletedAt))
}

// interleavingStates runs a competing update right before the first write it sees.
type interleavingStates struct {
	repository.LessonStateRepository
	before func()
	once   sync.Once
}

func (r *interleavingStates) Upsert(ctx context.Context, state *models.LessonState) error {
	r.once.Do(r.before)
	return r.LessonStateRepository.Upsert(ctx, state)
}

func TestStudentProgressServiceConcurrentStateUpdatesMerge(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()
	lessonID := fx.lessons[0].ID

	students := repository.NewStudentRepository(fx.db)
	courses := repository.NewCourseRepository(fx.db)
	lessons := repository.NewLessonRepository(fx.db)
	attempts := repository.NewQuizAttemptRepository(fx.db)
	states := &interleavingStates{LessonStateRepository: repository.NewLessonStateRepository(fx.db)}
	svc := NewStudentProgressService(StudentProgressDeps{
		Students:  students,
		Lessons:   lessons,
		Attempts:  attempts,
		States:    states,
		Source:    repository.NewProgressSource(students, courses, lessons, attempts, states),
		Validator: testValidator(),
	}, testLogger())

	states.before = func() {
		_, err := fx.svc.UpdateLessonState(ctx, fx.student.ID, fx.course.ID, lessonID, dto.LessonStateUpdateRequest{Completed: true})
		require.NoError(t, err)
	}

	viewed, err := svc.UpdateLessonState(ctx, fx.student.ID, fx.course.ID, lessonID, dto.LessonStateUpdateRequest{Viewed: true})
	require.NoError(t, err)
	require.True(t, viewed.Viewed)
	require.True(t, viewed.Completed)

	stored, err := repository.NewLessonStateRepository(fx.db).Get(ctx, fx.student.ID, lessonID)
	require.NoError(t, err)
	require.True(t, stored.Viewed)
	require.True(t, stored.Completed, "completion from the competing request is kept")
	require.NotNil(t, stored.CompletedAt)
}

func TestStudentProgressServiceNotFound(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, _, err := fx.svc.GetReport(ctx, "missing")
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, _, err = fx.svc.GetReport(ctx, "  ")
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = fx.svc.RecordAttempt(ctx, fx.student.ID, fx.course.ID, "nope", attemptPayload(50, 0))
	require.ErrorIs(t, err, ErrLessonNotFound)

	require.NoError(t, fx.students.SoftDelete(ctx, fx.student.ID))
	_, err = fx.svc.RecordAttempt(ctx, fx.student.ID, fx.course.ID, fx.lessons[0].ID, attemptPayload(50, 0))
	require.ErrorIs(t, err, ErrStudentNotFound)

	report, _, err := fx.svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, "Deleted", report.Student.Status)
}

func TestStudentProgressServiceValidatesAttempt(t *testing.T) {
	fx := newProgressFixture(t)

	_, err := fx.svc.RecordAttempt(context.Background(), fx.student.ID, fx.course.ID, fx.lessons[0].ID, dto.QuizAttemptCreateRequest{QuizScore: 150})
	require.Error(t, err)
	require.True(t, isValidationErr(err))
}

// invalidatingSource invalidates the student's report once, while a build is running.
type invalidatingSource struct {
	progress.Source
	during func()
	once   sync.Once
}

func (s *invalidatingSource) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	s.once.Do(s.during)
	return s.Source.EnrolledCourseIDs(ctx, studentID)
}

func TestStudentProgressServiceSkipsCachingReportInvalidatedDuringBuild(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	students := repository.NewStudentRepository(fx.db)
	courses := repository.NewCourseRepository(fx.db)
	lessons := repository.NewLessonRepository(fx.db)
	attempts := repository.NewQuizAttemptRepository(fx.db)
	states := repository.NewLessonStateRepository(fx.db)
	source := &invalidatingSource{Source: repository.NewProgressSource(students, courses, lessons, attempts, states)}
	source.during = func() {
		fx.svc.Invalidate(ctx, fx.student.ID, fx.course.ID, "")
	}

	svc := NewStudentProgressService(StudentProgressDeps{
		Students:  students,
		Lessons:   lessons,
		Attempts:  attempts,
		States:    states,
		Source:    source,
		Cache:     fx.redis,
		CacheTTL:  time.Minute,
		Validator: testValidator(),
	}, testLogger())

	_, hit, err := svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.False(t, hit)
	require.False(t, fx.mini.Exists(progressCacheKey(fx.student.ID)), "report built across an invalidation must not be cached")
	require.True(t, fx.mini.Exists(progressGenerationKey(fx.student.ID)))

	_, hit, err = svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.False(t, hit)
	require.True(t, fx.mini.Exists(progressCacheKey(fx.student.ID)))

	_, hit, err = svc.GetReport(ctx, fx.student.ID)
	require.NoError(t, err)
	require.True(t, hit)
}

func TestStudentProgressServiceSurvivesCacheOutage(t *testing.T) {
	fx := newProgressFixture(t)
	fx.mini.Close()

	report, hit, err := fx.svc.GetReport(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, report.Courses, 1)
}
