package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sitebooks/internal/access"
	"sitebooks/internal/database"
	"sitebooks/internal/export"
	"sitebooks/internal/middleware"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router *gin.Engine
	jobs   service.JobService
	users  service.UserService
	admin  string
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *struct {
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
	} `json:"meta"`
	Error string `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	txm := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	stockRepo := repository.NewStockRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)

	authService := service.NewAuthService(userRepo, jobRepo, auditRepo, txm, nil, []byte("handler-test-secret"))
	jobService := service.NewJobService(jobRepo, auditRepo, txm, nil, authService)
	userService := service.NewUserService(userRepo, jobRepo, auditRepo, txm, nil)
	projectService := service.NewProjectService(projectRepo, auditRepo, txm, nil)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, budgetRepo, inventoryRepo, stockRepo, auditRepo, txm, nil)
	partnerService := service.NewPartnerService(partnerRepo, auditRepo, txm, nil)

	router := gin.New()
	public := router.Group("/api")
	api := router.Group("/api", middleware.Authenticate(authService))
	NewAuthHandler(authService, false).RegisterRoutes(public, api)
	NewProjectHandler(projectService).RegisterRoutes(api)
	NewExpenseHandler(expenseService).RegisterRoutes(api)
	NewPartnerHandler(partnerService).RegisterRoutes(api)
	NewJobHandler(jobService).RegisterRoutes(api)

	s := &testServer{router: router, jobs: jobService, users: userService}

	w := s.do(t, http.MethodPost, "/api/auth/bootstrap", "", gin.H{"code": "100", "pin": "1234", "name": "المدير"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session service.Session
	decode(t, w, &session)
	s.admin = session.Token
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login creates a user holding grants and returns its token.
func (s *testServer) login(t *testing.T, code string, grants access.Grants) string {
	t.Helper()
	ctx := t.Context()
	job, err := s.jobs.CreateJob(ctx, "", service.JobRequest{Name: "job-" + code, Permissions: grants})
	require.NoError(t, err)
	_, err = s.users.CreateUser(ctx, "", service.CreateUserRequest{Code: code, PIN: "4321", Name: "user " + code, JobID: job.ID.String()})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"code": code, "pin": "4321"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session service.Session
	decode(t, w, &session)
	return session.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) *envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return &env
}

func TestLoginSetsCookie(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"code": "100", "pin": "1234"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.TokenCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var session service.Session
	decode(t, w, &session)
	assert.True(t, session.IsAdmin)
	assert.Equal(t, "100", session.User.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"code": "100", "pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/bootstrap", "", gin.H{"code": "200", "pin": "1234", "name": "ثاني"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/projects", "/api/auth/me", "/api/navigation", "/api/partners?kind=customer"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestProjectCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/projects", s.admin, gin.H{"name": "برج النخيل", "contract_value": "250000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decode(t, w, &project)

	w = s.do(t, http.MethodGet, "/api/projects?page=1&limit=10", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w, nil)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)

	w = s.do(t, http.MethodPut, "/api/projects/"+project.ID, s.admin, gin.H{"name": "برج النخيل 2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/projects", s.admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/projects/not-a-uuid", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/projects/"+project.ID, s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/projects/"+project.ID, s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteReferencedProjectConflicts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/projects", s.admin, gin.H{"name": "فيلا"})
	require.Equal(t, http.StatusCreated, w.Code)
	var project struct {
		ID string `json:"id"`
	}
	decode(t, w, &project)

	w = s.do(t, http.MethodPost, "/api/expenses", s.admin, gin.H{"project_id": project.ID, "type": "نقل", "amount": "120", "date": "2024-05-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/projects/"+project.ID, s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccessFollowsJobGrants(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "300", access.Grants{
		"/customers": {View: true},
		"/expenses":  {View: true},
	})

	tests := []struct {
		method string
		path   string
		body   interface{}
		status int
	}{
		{http.MethodGet, "/api/partners?kind=customer", nil, http.StatusOK},
		{http.MethodGet, "/api/partners?kind=supplier", nil, http.StatusForbidden},
		{http.MethodGet, "/api/partners?kind=bogus", nil, http.StatusBadRequest},
		{http.MethodPost, "/api/partners", gin.H{"kind": "customer", "name": "x"}, http.StatusForbidden},
		{http.MethodGet, "/api/expenses", nil, http.StatusOK},
		{http.MethodGet, "/api/expenses/export", nil, http.StatusForbidden},
		{http.MethodGet, "/api/projects", nil, http.StatusForbidden},
		{http.MethodGet, "/api/jobs", nil, http.StatusForbidden},
		{http.MethodGet, "/api/auth/me", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(t, http.MethodGet, "/api/navigation", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nav []access.NavItem
	decode(t, w, &nav)
	var paths []string
	for _, item := range nav {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"/dashboard", "/expenses", "/partners"}, paths)
}

func TestPartnerIDRoutesCheckKind(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "400", access.Grants{"/customers": access.FullAccess()})

	w := s.do(t, http.MethodPost, "/api/partners", s.admin, gin.H{"kind": "supplier", "name": "مورد"})
	require.Equal(t, http.StatusCreated, w.Code)
	var supplier struct {
		ID string `json:"id"`
	}
	decode(t, w, &supplier)

	w = s.do(t, http.MethodGet, "/api/partners/"+supplier.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, "/api/partners/"+supplier.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/partners", token, gin.H{"kind": "customer", "name": "عميل"})
	require.Equal(t, http.StatusCreated, w.Code)
	var customer struct {
		ID string `json:"id"`
	}
	decode(t, w, &customer)

	// Moving a customer into suppliers needs rights on both lists.
	w = s.do(t, http.MethodPut, "/api/partners/"+customer.ID, token, gin.H{"kind": "supplier", "name": "عميل"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/api/partners/"+customer.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportExpenses(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/expenses", s.admin, gin.H{"type": "مواد", "amount": "99.5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/expenses/export", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=expenses.xlsx", w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestWriteErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("project %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrProtected, http.StatusConflict},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{service.ErrUnbalancedEntry, http.StatusUnprocessableEntity},
		{fmt.Errorf("database error: boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tt.err)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}
