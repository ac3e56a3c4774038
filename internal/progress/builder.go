package progress

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned by a Source when the referenced record does not exist.
var ErrNotFound = errors.New("progress: record not found")

// Fetch scopes reported to FetchErrorHook.
const (
	ScopeEnrollment   = "enrollment"
	ScopeLessonStates = "lesson_states"
	ScopeCourse       = "course"
	ScopeLessons      = "lessons"
	ScopeAttempts     = "attempts"
)

const defaultFetchConcurrency = 4

// Source is the document-store collaborator the builder reads from.
type Source interface {
	EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error)
	CourseName(ctx context.Context, courseID string) (string, error)
	Lessons(ctx context.Context, courseID string) ([]LessonRef, error)
	Attempts(ctx context.Context, courseID, lessonID, studentID string) ([]Attempt, error)
	LessonStates(ctx context.Context, studentID string) (map[string]LessonState, error)
}

// FetchErrorHook observes fetch failures that the builder degraded to empty results.
type FetchErrorHook func(scope string, err error)

// BuilderOptions tunes a Builder.
type BuilderOptions struct {
	// Concurrency bounds parallel fetches per level (courses, then lessons of a course).
	Concurrency  int
	Logger       zerolog.Logger
	OnFetchError FetchErrorHook
}

// Builder assembles a StudentSummary from a Source. Fetch failures never abort a build:
// the affected scope is treated as empty.
type Builder struct {
	source       Source
	concurrency  int
	logger       zerolog.Logger
	onFetchError FetchErrorHook
}

// NewBuilder constructs a Builder over the given source.
func NewBuilder(source Source, opts BuilderOptions) *Builder {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}

	return &Builder{
		source:       source,
		concurrency:  concurrency,
		logger:       opts.Logger.With().Str("component", "progress_builder").Logger(),
		onFetchError: opts.OnFetchError,
	}
}

// Build produces the progress summary of a student. Only the ID of the returned identity is
// set; callers attach the remaining identity fields.
func (b *Builder) Build(ctx context.Context, studentID string) StudentSummary {
	courseIDs, err := b.source.EnrolledCourseIDs(ctx, studentID)
	if err != nil {
		b.fetchFailed(ScopeEnrollment, err, studentID, "", "")
		courseIDs = nil
	}
	courseIDs = compactIDs(courseIDs)

	states, err := b.source.LessonStates(ctx, studentID)
	if err != nil {
		b.fetchFailed(ScopeLessonStates, err, studentID, "", "")
		states = nil
	}

	courses := make([]CourseView, len(courseIDs))
	group := new(errgroup.Group)
	group.SetLimit(b.concurrency)
	for i, courseID := range courseIDs {
		group.Go(func() error {
			courses[i] = b.buildCourse(ctx, studentID, courseID, states)
			return nil
		})
	}
	_ = group.Wait()

	return Summarize(Identity{ID: studentID}, courses)
}

func (b *Builder) buildCourse(ctx context.Context, studentID, courseID string, states map[string]LessonState) CourseView {
	name, err := b.source.CourseName(ctx, courseID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.fetchFailed(ScopeCourse, err, studentID, courseID, "")
		}
		name = courseID
	}

	refs, err := b.source.Lessons(ctx, courseID)
	if err != nil {
		b.fetchFailed(ScopeLessons, err, studentID, courseID, "")
		refs = nil
	}

	lessons := make([]LessonView, len(refs))
	group := new(errgroup.Group)
	group.SetLimit(b.concurrency)
	for i, ref := range refs {
		group.Go(func() error {
			attempts, err := b.source.Attempts(ctx, courseID, ref.ID, studentID)
			if err != nil {
				b.fetchFailed(ScopeAttempts, err, studentID, courseID, ref.ID)
				attempts = nil
			}
			lessons[i] = BuildLesson(ref.ID, ref.Name, lookupState(states, ref.ID), attempts)
			return nil
		})
	}
	_ = group.Wait()

	return AggregateCourse(courseID, name, lessons)
}

func (b *Builder) fetchFailed(scope string, err error, studentID, courseID, lessonID string) {
	event := b.logger.Warn().Err(err).Str("scope", scope).Str("student_id", studentID)
	if courseID != "" {
		event = event.Str("course_id", courseID)
	}
	if lessonID != "" {
		event = event.Str("lesson_id", lessonID)
	}
	event.Msg("progress fetch failed, continuing with empty result")

	if b.onFetchError != nil {
		b.onFetchError(scope, err)
	}
}

func lookupState(states map[string]LessonState, lessonID string) *LessonState {
	state, ok := states[lessonID]
	if !ok {
		return nil
	}
	return &state
}

func compactIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
