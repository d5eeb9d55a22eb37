package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"library-circulation/internal/adapters/http/middleware"
	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/config"
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "routes-test-secret"

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	svc *services.Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{AppMode: "dev"}
	cfg.JWT.Secret = testSecret

	svc := services.NewContainer(db, services.Options{
		Policy:               services.DefaultPolicy,
		Schedule:             services.DefaultCronSchedule,
		SlotSearchRadius:     3,
		ReconcileParallelism: 2,
	})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, svc, cfg)
	return &testServer{t: t, app: app, svc: svc}
}

func (s *testServer) token(userID uint, role string) string {
	s.t.Helper()
	token, err := jwt.GenerateAccessToken(userID, fmt.Sprintf("user%d", userID), role, testSecret, 5)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) (int, apiResponse) {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/api/v1/loans", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)

	status, _ = s.do(http.MethodGet, "/api/v1/loans", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStaffOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	patron := s.token(11, "PATRON")

	status, _ := s.do(http.MethodPost, "/api/v1/loans", patron, `{"book_id":1,"patron_id":11}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, "/api/v1/admin/reconcile", s.token(900, "LIBRARIAN"), "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(900, "LIBRARIAN")

	book := &models.Book{Title: "Beloved", Author: "Toni Morrison"}
	require.NoError(t, s.svc.Store.Books.Create(context.Background(), book))

	status, body := s.do(http.MethodPost, fmt.Sprintf("/api/v1/books/%d/copies", book.ID), staff, `{"count":1}`)
	require.Equal(t, http.StatusCreated, status, body.Error)

	checkout := fmt.Sprintf(`{"book_id":%d,"patron_id":11}`, book.ID)
	status, body = s.do(http.MethodPost, "/api/v1/loans", staff, checkout)
	require.Equal(t, http.StatusCreated, status, body.Error)

	var created struct {
		Loan models.Loan `json:"loan"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, uint(11), created.Loan.PatronID)

	status, body = s.do(http.MethodPost, "/api/v1/loans", staff, checkout)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body.Code)

	status, body = s.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d", book.ID), staff, "")
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Book models.Book `json:"book"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, 1, got.Book.TotalCopies)
	assert.Equal(t, 0, got.Book.AvailableCopies)

	// Patrons only see their own loans
	status, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/loans/%d", created.Loan.ID), s.token(12, "PATRON"), "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(http.MethodPut, fmt.Sprintf("/api/v1/loans/%d/return", created.Loan.ID), staff, `{"condition":"good"}`)
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = s.do(http.MethodPut, fmt.Sprintf("/api/v1/loans/%d/return", created.Loan.ID), staff, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body.Code)
}

func TestUnknownRecord(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/api/v1/books/4242", s.token(11, "PATRON"), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body.Code)

	status, body = s.do(http.MethodGet, "/api/v1/books/abc", s.token(11, "PATRON"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", body.Code)
}
