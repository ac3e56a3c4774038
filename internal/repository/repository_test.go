package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/models"
	"github.com/noah-isme/lms-admin-api/internal/progress"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Enrollment{},
		&models.Course{},
		&models.Lesson{},
		&models.QuizAttempt{},
		&models.LessonState{},
		&models.UploadRecord{},
	))
	return db
}

func TestStudentRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	older := models.Student{Name: "Alice", Surname: "Johnson", Email: "alice@example.com", CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.Student{Name: "Bob", Surname: "Stone", Email: "bob@example.com", CreatedAt: time.Now().Add(-1 * time.Hour)}
	gone := models.Student{Name: "Carl", Surname: "Gone", Email: "carl@example.com", IsDeleted: true}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))
	require.NoError(t, repo.Create(ctx, &gone))

	students, total, err := repo.List(ctx, StudentFilter{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total, "deleted students are hidden without a search term")
	require.Equal(t, "Bob", students[0].Name, "expected newest record first")

	students, total, err = repo.List(ctx, StudentFilter{Search: "JOHN"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Alice", students[0].Name)

	students, _, err = repo.List(ctx, StudentFilter{Search: "deleted"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Carl", students[0].Name)
}

func TestStudentRepositorySoftDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{Name: "Dana", Email: "dana@example.com"}
	require.NoError(t, repo.Create(ctx, &student))
	require.NotEmpty(t, student.ID)

	require.NoError(t, repo.SoftDelete(ctx, student.ID))
	require.ErrorIs(t, repo.SoftDelete(ctx, student.ID), gorm.ErrRecordNotFound)

	stored, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDeleted)
}

func TestStudentRepositoryEnrollmentOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{Name: "Eve", Email: "eve@example.com"}
	require.NoError(t, repo.Create(ctx, &student))

	require.NoError(t, repo.Enroll(ctx, student.ID, "zeta"))
	require.NoError(t, repo.Enroll(ctx, student.ID, "alpha"))
	require.NoError(t, repo.Enroll(ctx, student.ID, "zeta"))

	ids, err := repo.EnrolledCourseIDs(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha"}, ids)

	counts, err := repo.CountByCourse(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts["zeta"])
}

func TestQuizAttemptRepositoryNumbersAttempts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizAttemptRepository(db)
	ctx := context.Background()

	for _, score := range []float64{40, 90, 70} {
		attempt := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1", QuizScore: score}
		require.NoError(t, repo.Create(ctx, &attempt))
	}
	other := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s2", QuizScore: 100}
	require.NoError(t, repo.Create(ctx, &other))

	attempts, err := repo.ListForLesson(ctx, "c1", "l1", "s1")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	for i, attempt := range attempts {
		require.Equal(t, i+1, attempt.Attempt)
	}
	require.Equal(t, 1, other.Attempt)
}

func TestQuizAttemptNumberIsUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1", Attempt: 2}
	require.NoError(t, db.WithContext(ctx).Create(&first).Error)

	duplicate := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1", Attempt: 2}
	require.ErrorIs(t, db.WithContext(ctx).Create(&duplicate).Error, gorm.ErrDuplicatedKey)
}

func TestQuizAttemptRepositoryRetriesNumberCollision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizAttemptRepository(db)
	ctx := context.Background()

	seed := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1", QuizScore: 50}
	require.NoError(t, repo.Create(ctx, &seed))

	collisions := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:collide", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.QuizAttempt); ok && collisions == 0 {
			collisions++
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	next := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1", QuizScore: 90}
	require.NoError(t, repo.Create(ctx, &next))
	require.Equal(t, 1, collisions)
	require.Equal(t, 2, next.Attempt)

	attempts, err := repo.ListForLesson(ctx, "c1", "l1", "s1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
}

func TestQuizAttemptRepositoryGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizAttemptRepository(db)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:always_collide", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.QuizAttempt); ok {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	attempt := models.QuizAttempt{CourseID: "c1", LessonID: "l1", StudentID: "s1"}
	require.ErrorIs(t, repo.Create(context.Background(), &attempt), gorm.ErrDuplicatedKey)
}

func TestLessonStateRepositoryUpsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonStateRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &models.LessonState{StudentID: "s1", LessonID: "l1", Viewed: true, LastViewedAt: &now}))
	require.NoError(t, repo.Upsert(ctx, &models.LessonState{StudentID: "s1", LessonID: "l1", Viewed: true, LastViewedAt: &now, Completed: true, CompletedAt: &now}))

	states, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.True(t, states[0].Completed)
}

func TestLessonStateRepositoryUpsertOnlyRaisesFlags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonStateRepository(db)
	ctx := context.Background()

	completedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.LessonState{StudentID: "s1", LessonID: "l1", Completed: true, CompletedAt: &completedAt}))

	viewedAt := completedAt.Add(time.Hour)
	viewOnly := models.LessonState{StudentID: "s1", LessonID: "l1", Viewed: true, LastViewedAt: &viewedAt}
	require.NoError(t, repo.Upsert(ctx, &viewOnly))
	require.True(t, viewOnly.Viewed)
	require.True(t, viewOnly.Completed, "a view must not clear an earlier completion")
	require.NotNil(t, viewOnly.CompletedAt)
	require.True(t, completedAt.Equal(*viewOnly.CompletedAt))

	later := completedAt.Add(2 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.LessonState{StudentID: "s1", LessonID: "l1", Completed: true, CompletedAt: &later}))

	stored, err := repo.Get(ctx, "s1", "l1")
	require.NoError(t, err)
	require.True(t, stored.Viewed)
	require.True(t, stored.Completed)
	require.True(t, completedAt.Equal(*stored.CompletedAt), "first completion time is kept")
	require.True(t, viewedAt.Equal(*stored.LastViewedAt))
}

func TestProgressSourceFeedsBuilder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	students := NewStudentRepository(db)
	courses := NewCourseRepository(db)
	lessons := NewLessonRepository(db)
	attempts := NewQuizAttemptRepository(db)
	states := NewLessonStateRepository(db)

	student := models.Student{Name: "Finn", Email: "finn@example.com"}
	require.NoError(t, students.Create(ctx, &student))

	course := models.Course{Title: "Go Basics"}
	require.NoError(t, courses.Create(ctx, &course))

	first := models.Lesson{CourseID: course.ID, Title: "Variables"}
	second := models.Lesson{CourseID: course.ID, Title: "Loops"}
	require.NoError(t, lessons.Create(ctx, &first))
	require.NoError(t, lessons.Create(ctx, &second))

	require.NoError(t, students.Enroll(ctx, student.ID, course.ID))
	require.NoError(t, students.Enroll(ctx, student.ID, "missing-course"))

	submitted := time.Now().UTC().Truncate(time.Second)
	for _, score := range []float64{60, 90} {
		attempt := models.QuizAttempt{CourseID: course.ID, LessonID: first.ID, StudentID: student.ID, QuizScore: score, Score: 1, SubmittedAt: &submitted}
		require.NoError(t, attempts.Create(ctx, &attempt))
	}
	require.NoError(t, states.Upsert(ctx, &models.LessonState{StudentID: student.ID, LessonID: second.ID, Viewed: true}))

	source := NewProgressSource(students, courses, lessons, attempts, states)

	name, err := source.CourseName(ctx, "missing-course")
	require.ErrorIs(t, err, progress.ErrNotFound)
	require.Empty(t, name)

	summary := progress.NewBuilder(source, progress.BuilderOptions{}).Build(ctx, student.ID)
	require.Len(t, summary.Courses, 2)

	goBasics := summary.Courses[0]
	require.Equal(t, "Go Basics", goBasics.CourseName)
	require.Len(t, goBasics.Lessons, 2)
	require.Equal(t, "Variables", goBasics.Lessons[0].LessonName)
	require.True(t, goBasics.Lessons[0].Completed)
	require.Equal(t, 2, goBasics.Lessons[0].AttemptCount)
	require.Equal(t, 90.0, goBasics.Lessons[0].BestScorePercent)
	require.True(t, goBasics.Lessons[1].Viewed)
	require.False(t, goBasics.Lessons[1].Completed)
	require.InDelta(t, 50.0, goBasics.CompletionPercentage(), 1e-9)

	missing := summary.Courses[1]
	require.Equal(t, "missing-course", missing.CourseName)
	require.Equal(t, 0, missing.TotalLessons())
}
