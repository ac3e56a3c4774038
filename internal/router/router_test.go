package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-admin-api/internal/config"
	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/handler"
	"github.com/noah-isme/lms-admin-api/internal/middleware"
	"github.com/noah-isme/lms-admin-api/internal/observability"
	"github.com/noah-isme/lms-admin-api/internal/router"
)

const testSecret = "router-secret"

type reportStub struct{}

func (reportStub) GetReport(_ context.Context, studentID string) (dto.StudentProgressResponse, bool, error) {
	return dto.StudentProgressResponse{Student: dto.StudentIdentity{ID: studentID}}, false, nil
}

func (reportStub) RecordAttempt(context.Context, string, string, string, dto.QuizAttemptCreateRequest) (dto.QuizAttemptResponse, error) {
	return dto.QuizAttemptResponse{}, nil
}

func (reportStub) UpdateLessonState(context.Context, string, string, string, dto.LessonStateUpdateRequest) (dto.LessonStateResponse, error) {
	return dto.LessonStateResponse{}, nil
}

func (reportStub) Invalidate(context.Context, string, string, string) {}

type dashboardStub struct{}

func (dashboardStub) GetSummary(context.Context) (dto.AdminDashboardResponse, error) {
	return dto.AdminDashboardResponse{ActiveStudents: 1}, nil
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newApp() *fiber.App {
	observability.RegisterMetrics()

	app := fiber.New()
	router.Register(app, config.Config{AppName: "LMS Admin API", AppEnv: "test"}, router.Dependencies{
		ProgressHandler:  handler.NewProgressHandler(reportStub{}, zerolog.Nop()),
		DashboardHandler: handler.NewAdminAnalyticsHandler(dashboardStub{}, zerolog.Nop()),
		JWTMiddleware:    middleware.JWTProtected(testSecret),
	})
	return app
}

func TestRouterGuardsAdminRoutes(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/students/s1/progress", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/students/s1/progress", nil)
	req.Header.Set("Authorization", bearer(t, "s1", "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/students/s1/progress", nil)
	req.Header.Set("Authorization", bearer(t, "admin@example.com", "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterDashboardIsAdminOnly(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, "s1", "student"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, "admin@example.com", "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterStudentRoutesRequireStudentRole(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v2/student/progress", nil)
	req.Header.Set("Authorization", bearer(t, "admin@example.com", "admin"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v2/student/progress", nil)
	req.Header.Set("Authorization", bearer(t, "s1", "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterPublicEndpoints(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "LMS Admin API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
