package app

import (
	"bytes"
	"encoding/json"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret-0123456789abcdef"

type testEnv struct {
	app     *App
	db      *gorm.DB
	tokens  map[model.UserRole]string
	users   map[model.UserRole]model.User
	learner model.User
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.Models()...))

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", QueryTimeout: time.Second},
		JWT:      config.JWTConfig{Secret: testSecret},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	env := &testEnv{
		app:    New(cfg, db, nil),
		db:     db,
		tokens: map[model.UserRole]string{},
		users:  map[model.UserRole]model.User{},
	}
	for _, u := range []model.User{
		{Name: "Ada", Email: "ada@example.com", Role: model.Admin},
		{Name: "Milo", Email: "milo@example.com", Role: model.Mentor},
		{Name: "Lena", Email: "lena@example.com", Role: model.Learner},
	} {
		require.NoError(t, db.Create(&u).Error)
		token, err := util.GenerateJWT(&u, testSecret, time.Hour)
		require.NoError(t, err)
		env.tokens[u.Role] = token
		env.users[u.Role] = u
	}
	env.learner = env.users[model.Learner]
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, role model.UserRole, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := e.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.app.Router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (e *testEnv) createSubmission(t *testing.T, title string) string {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/api/submissions", model.Learner, map[string]interface{}{
		"title":         title,
		"submissionUrl": "https://github.com/lena/" + title,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	return view.ID
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"up","cache":"disabled"}}`, string(resp.Data))

	w, _ = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_RequireAuthAndRole(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/admin/submissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/admin/submissions", model.Learner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/admin/submissions", model.Mentor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/submissions", model.Mentor, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSubmission(t, "weather-app")
	mentor := env.users[model.Mentor]

	w, resp := env.do(t, http.MethodPut, "/api/mentor/submissions/"+id+"/review", model.Mentor, map[string]interface{}{
		"status":   "approved",
		"feedback": "nice work",
		"score":    88,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view struct {
		Status     string  `json:"status"`
		Score      float64 `json:"score"`
		ReviewedAt *string `json:"reviewedAt"`
		Mentor     struct {
			ID uint `json:"id"`
		} `json:"mentor"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "approved", view.Status)
	assert.Equal(t, 88.0, view.Score)
	assert.NotNil(t, view.ReviewedAt)
	assert.Equal(t, mentor.ID, view.Mentor.ID)

	w, _ = env.do(t, http.MethodPut, "/api/mentor/submissions/"+id+"/review", model.Mentor, map[string]interface{}{"score": 120})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/mentor/submissions/missing/review", model.Mentor, map[string]interface{}{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/mentor/submissions", model.Mentor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Submissions []json.RawMessage `json:"submissions"`
		Pagination  util.Pagination   `json:"pagination"`
		Analytics   model.AnalyticsSummary
	}
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	assert.Len(t, listing.Submissions, 1)
	assert.Equal(t, int64(1), listing.Pagination.Total)

	w, resp = env.do(t, http.MethodGet, "/api/admin/submissions/"+id+"/reviews", model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"status":"approved"`)
}

func TestAdminListingAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"a", "b", "c"} {
		env.createSubmission(t, title)
	}

	w, resp := env.do(t, http.MethodGet, "/api/admin/submissions?page=2&limit=2&sortBy=title&sortOrder=asc", model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listing struct {
		Submissions []struct {
			Title   string          `json:"title"`
			Career  json.RawMessage `json:"career"`
			Project struct {
				ID string `json:"id"`
			} `json:"project"`
		} `json:"submissions"`
		Pagination util.Pagination         `json:"pagination"`
		Analytics  *model.AnalyticsSummary `json:"analytics"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	require.Len(t, listing.Submissions, 1)
	assert.Equal(t, "c", listing.Submissions[0].Title)
	assert.Equal(t, "null", string(listing.Submissions[0].Career))
	assert.Equal(t, util.UnassignedProjectID, listing.Submissions[0].Project.ID)
	assert.Equal(t, util.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2, HasPrev: true}, listing.Pagination)
	require.NotNil(t, listing.Analytics)
	assert.Equal(t, int64(3), listing.Analytics.Pending)

	w, _ = env.do(t, http.MethodGet, "/api/admin/submissions?status=archived", model.Admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/admin/submissions/analytics?dateFrom=2000-01-01&dateTo=2000-01-31", model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":0,"pending":0,"approved":0,"rejected":0,"approvalRate":0,"avgReviewTimeHours":0}`, string(resp.Data))
}

func TestBulkReviewAndAssignment(t *testing.T) {
	env := newTestEnv(t)
	a := env.createSubmission(t, "a")
	b := env.createSubmission(t, "b")

	w, _ := env.do(t, http.MethodPut, "/api/admin/submissions/bulk-review", model.Admin, `{"submissionIds":"`+a+`","status":"approved"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "ids must be a list")

	w, _ = env.do(t, http.MethodPut, "/api/admin/submissions/bulk-review", model.Admin, map[string]interface{}{"submissionIds": []string{}, "status": "approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := env.do(t, http.MethodPut, "/api/admin/submissions/bulk-review", model.Admin, map[string]interface{}{
		"submissionIds": []string{a, b, "ghost"},
		"status":        "rejected",
		"feedback":      "missing README",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"updatedCount":2,"totalRequested":3}`, string(resp.Data))

	w, _ = env.do(t, http.MethodPut, "/api/admin/submissions/"+a+"/assign-mentor", model.Admin, map[string]interface{}{"mentorId": env.learner.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mentor := env.users[model.Mentor]
	w, _ = env.do(t, http.MethodPut, "/api/admin/submissions/"+a+"/assign-mentor", model.Admin, map[string]interface{}{"mentorId": mentor.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = env.do(t, http.MethodGet, "/api/admin/mentors/workload", model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var workload struct {
		Mentors []model.MentorWorkload `json:"mentors"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &workload))
	require.Len(t, workload.Mentors, 1)
	assert.Equal(t, "Milo", workload.Mentors[0].Name)
	assert.Equal(t, int64(1), workload.Mentors[0].TotalCount)
}

func TestDeleteThenGet(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSubmission(t, "gone")

	w, _ := env.do(t, http.MethodGet, "/api/submissions/"+id, model.Learner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/admin/submissions/"+id, model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/submissions/"+id, model.Learner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/admin/submissions/"+id, model.Admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyConfigUpdatesReviewSettings(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"a", "b", "c"} {
		env.createSubmission(t, title)
	}

	env.app.ApplyConfig(&config.Config{Review: config.ReviewConfig{DefaultPageSize: 1, MaxPageSize: 2}})

	w, resp := env.do(t, http.MethodGet, "/api/admin/submissions?limit=50", model.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Pagination util.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	assert.Equal(t, 2, listing.Pagination.Limit)
	assert.Equal(t, int64(2), listing.Pagination.Pages)
}

func TestActivityTracking(t *testing.T) {
	lastSeen := func(env *testEnv) func() bool {
		return func() bool {
			var u model.User
			require.NoError(t, env.db.First(&u, env.learner.ID).Error)
			return u.LastSeen != nil
		}
	}

	t.Run("off by default", func(t *testing.T) {
		env := newTestEnv(t)
		env.createSubmission(t, "quiet")
		assert.Never(t, lastSeen(env), 200*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config) {
			cfg.Activity = config.ActivityConfig{Enabled: true, MinInterval: time.Minute}
		})
		env.createSubmission(t, "tracked")
		assert.Eventually(t, lastSeen(env), 2*time.Second, 20*time.Millisecond)
	})
}
