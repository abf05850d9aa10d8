package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/server"
	"github.com/Heidric/workify/internal/services/auth"
	"github.com/Heidric/workify/internal/services/job"
	"github.com/Heidric/workify/internal/services/user"
	gojwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "server-test-secret-0123456789abcdef"

type fakeAuth struct {
	loginResp *model.LoginResponse
	loginErr  error
	regErr    error
	meErr     error
	changeErr error

	gotUserID int64
}

func (f *fakeAuth) Register(ctx context.Context, dto model.RegisterDTO) (*model.LoginResponse, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &model.LoginResponse{TokenType: "Bearer", AccessToken: "t"}, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Me(ctx context.Context, userID int64) (*model.Identity, error) {
	f.gotUserID = userID
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &model.Identity{ID: userID, Role: model.RoleStudent}, nil
}

func (f *fakeAuth) ChangePassword(ctx context.Context, userID int64, password, newPassword string) (*model.LoginResponse, error) {
	f.gotUserID = userID
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return &model.LoginResponse{TokenType: "Bearer", AccessToken: "fresh"}, nil
}

type fakeJobs struct {
	viewer     *model.UserClaim
	viewerSeen bool
	employerID int64
	applyErr   error
	listAppErr error
	getErr     error
}

func (f *fakeJobs) List(ctx context.Context, viewer *model.UserClaim, q model.JobListQuery) (*model.JobListResponse, error) {
	f.viewer, f.viewerSeen = viewer, true
	return &model.JobListResponse{Items: []model.JobResponse{}}, nil
}

func (f *fakeJobs) Get(ctx context.Context, viewer *model.UserClaim, id int64) (*model.JobResponse, error) {
	f.viewer, f.viewerSeen = viewer, true
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.JobResponse{Job: model.Job{ID: id}}, nil
}

func (f *fakeJobs) Create(ctx context.Context, employerID int64, dto model.CreateJobDTO) (*model.Job, error) {
	f.employerID = employerID
	return &model.Job{ID: 1, EmployerID: employerID, Title: dto.Title, Kind: dto.Kind}, nil
}

func (f *fakeJobs) Apply(ctx context.Context, studentID, jobID int64, dto model.ApplyDTO) (*model.Application, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &model.Application{ID: 1, JobID: jobID, StudentID: studentID}, nil
}

func (f *fakeJobs) ListApplications(ctx context.Context, requester model.UserClaim, jobID int64) ([]model.Application, error) {
	if f.listAppErr != nil {
		return nil, f.listAppErr
	}
	return []model.Application{}, nil
}

type fakeUsers struct {
	resetErr error
}

func (f *fakeUsers) List(ctx context.Context, q model.UserListQuery) (*model.UserListResponse, error) {
	return &model.UserListResponse{Items: []model.User{}}, nil
}

func (f *fakeUsers) ResetPassword(ctx context.Context, adminID, userID int64) (string, error) {
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return "Tmp0rary-pass", nil
}

type testEnv struct {
	codec   *jwt.Codec
	auth    *fakeAuth
	jobs    *fakeJobs
	users   *fakeUsers
	handler http.Handler
	metrics http.Handler
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := jwt.New(&jwt.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	env := &testEnv{
		codec: codec,
		auth:  &fakeAuth{},
		jobs:  &fakeJobs{},
		users: &fakeUsers{},
	}
	srv := server.NewServer(":0", server.Deps{
		Authn:          codec,
		Auth:           env.auth,
		Jobs:           env.jobs,
		Users:          env.users,
		MetricsAddress: ":0",
	})
	env.handler = srv.Handler()
	env.metrics = srv.MetricsHandler()

	return env
}

func (e *testEnv) token(t *testing.T, id int64, role string) string {
	t.Helper()
	return e.issue(t, model.JwtDTO{ID: id, Role: role})
}

func (e *testEnv) issue(t *testing.T, dto model.JwtDTO) string {
	t.Helper()
	tok, _, err := e.codec.Issue(dto, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("want %d, got %d, body=%s", status, w.Code, w.Body.String())
	}
}

func wantMiddlewareError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	wantStatus(t, w, status)
	var body model.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != msg {
		t.Fatalf("want error %q, got %q", msg, body.Error)
	}
}

func wantCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	wantStatus(t, w, status)
	var body server.CommonError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != code {
		t.Fatalf("want code %q, got %q", code, body.Code)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	env := newEnv(t)

	wantStatus(t, env.do(http.MethodGet, "/api/v1/health", "", ""), http.StatusOK)
	wantCode(t, env.do(http.MethodGet, "/api/v1/nope", "", ""), http.StatusNotFound, "ENDPOINT_NOT_FOUND")
}

func TestLoginHandler(t *testing.T) {
	env := newEnv(t)
	body := `{"email":"a@b.io","password":"Secret123"}`

	env.auth.loginResp = &model.LoginResponse{TokenType: "Bearer", AccessToken: "tok"}
	wantStatus(t, env.do(http.MethodPost, "/api/v1/auth/login", "", body), http.StatusOK)

	env.auth.loginResp, env.auth.loginErr = nil, auth.ErrInvalidCredentials
	wantCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "", body), http.StatusUnauthorized, "UNAUTHORIZED")

	env.auth.loginErr = auth.ErrTooManyAttempts
	wantCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "", body), http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
}

func TestRegisterHandler(t *testing.T) {
	env := newEnv(t)
	body := `{"email":"a@b.io","password":"Secret123","name":"Ann","role":"STUDENT"}`

	wantStatus(t, env.do(http.MethodPost, "/api/v1/auth/register", "", body), http.StatusCreated)

	env.auth.regErr = auth.ErrEmailNotUnique
	wantCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", body), http.StatusConflict, server.ErrEmailNotUnique)

	admin := `{"email":"a@b.io","password":"Secret123","name":"Ann","role":"ADMIN"}`
	wantCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", admin), http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	wantCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", "{"), http.StatusBadRequest, "PARSING_ERROR")
}

func TestMeRequiresToken(t *testing.T) {
	env := newEnv(t)

	wantMiddlewareError(t, env.do(http.MethodGet, "/api/v1/auth/me", "", ""), http.StatusUnauthorized, jwt.MsgMissingOrMalformedToken)
	wantMiddlewareError(t, env.do(http.MethodGet, "/api/v1/auth/me", "garbage", ""), http.StatusUnauthorized, jwt.MsgInvalidOrExpiredToken)

	w := env.do(http.MethodGet, "/api/v1/auth/me", env.token(t, 42, model.RoleStudent), "")
	wantStatus(t, w, http.StatusOK)
	if env.auth.gotUserID != 42 {
		t.Fatalf("want user 42, got %d", env.auth.gotUserID)
	}

	env.auth.meErr = auth.ErrUserNotFound
	wantStatus(t, env.do(http.MethodGet, "/api/v1/auth/me", env.token(t, 42, model.RoleStudent), ""), http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	env := newEnv(t)
	body := `{"password":"Secret123","newPassword":"Secret456"}`
	tok := env.token(t, 7, model.RoleEmployer)

	w := env.do(http.MethodPost, "/api/v1/auth/changePassword", tok, body)
	wantStatus(t, w, http.StatusOK)
	var res model.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.AccessToken != "fresh" {
		t.Fatalf("want a fresh token, got %+v", res)
	}
	if env.auth.gotUserID != 7 {
		t.Fatalf("want user 7, got %d", env.auth.gotUserID)
	}

	env.auth.changeErr = auth.ErrInvalidCredentials
	wantStatus(t, env.do(http.MethodPost, "/api/v1/auth/changePassword", tok, body), http.StatusUnauthorized)
}

func TestJobListOptionalIdentity(t *testing.T) {
	env := newEnv(t)

	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs", "", ""), http.StatusOK)
	if !env.jobs.viewerSeen || env.jobs.viewer != nil {
		t.Fatalf("anonymous request must reach the handler without identity, got %+v", env.jobs.viewer)
	}

	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs", "not.a.token", ""), http.StatusOK)
	if env.jobs.viewer != nil {
		t.Fatalf("invalid token must be treated as anonymous, got %+v", env.jobs.viewer)
	}

	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs/5", env.token(t, 3, model.RoleStudent), ""), http.StatusOK)
	if env.jobs.viewer == nil || env.jobs.viewer.ID != 3 || env.jobs.viewer.Role != model.RoleStudent {
		t.Fatalf("want student 3 as viewer, got %+v", env.jobs.viewer)
	}

	wantCode(t, env.do(http.MethodGet, "/api/v1/jobs?kind=NOPE", "", ""), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs/abc", "", ""), http.StatusBadRequest)

	env.jobs.getErr = job.ErrJobNotFound
	wantCode(t, env.do(http.MethodGet, "/api/v1/jobs/9", "", ""), http.StatusNotFound, server.ErrJobNotFound)
}

func TestCreateJobRoleGate(t *testing.T) {
	env := newEnv(t)
	body := `{"title":"Go intern","description":"Write services","kind":"INTERNSHIP"}`

	wantMiddlewareError(t, env.do(http.MethodPost, "/api/v1/jobs", "", body), http.StatusUnauthorized, jwt.MsgMissingOrMalformedToken)
	wantMiddlewareError(t, env.do(http.MethodPost, "/api/v1/jobs", env.token(t, 1, model.RoleStudent), body), http.StatusForbidden, jwt.MsgForbidden)

	wantStatus(t, env.do(http.MethodPost, "/api/v1/jobs", env.token(t, 11, model.RoleEmployer), body), http.StatusCreated)
	if env.jobs.employerID != 11 {
		t.Fatalf("want employer 11, got %d", env.jobs.employerID)
	}

	wantStatus(t, env.do(http.MethodPost, "/api/v1/jobs", env.token(t, 12, model.RoleAdmin), body), http.StatusCreated)
}

func TestApplyHandler(t *testing.T) {
	env := newEnv(t)
	body := `{"coverLetter":"hello"}`

	wantMiddlewareError(t, env.do(http.MethodPost, "/api/v1/jobs/3/apply", env.token(t, 11, model.RoleEmployer), body), http.StatusForbidden, jwt.MsgForbidden)

	student := env.token(t, 5, model.RoleStudent)
	wantStatus(t, env.do(http.MethodPost, "/api/v1/jobs/3/apply", student, body), http.StatusCreated)

	env.jobs.applyErr = job.ErrAlreadyApplied
	wantCode(t, env.do(http.MethodPost, "/api/v1/jobs/3/apply", student, body), http.StatusConflict, server.ErrAlreadyApplied)

	env.jobs.applyErr = job.ErrJobNotFound
	wantCode(t, env.do(http.MethodPost, "/api/v1/jobs/3/apply", student, body), http.StatusNotFound, server.ErrJobNotFound)
}

func TestListApplicationsOwnership(t *testing.T) {
	env := newEnv(t)
	employer := env.token(t, 11, model.RoleEmployer)

	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs/3/applications", employer, ""), http.StatusOK)

	env.jobs.listAppErr = job.ErrNotJobOwner
	wantCode(t, env.do(http.MethodGet, "/api/v1/jobs/3/applications", employer, ""), http.StatusForbidden, "FORBIDDEN")
}

func TestAdminRoutes(t *testing.T) {
	env := newEnv(t)
	admin := env.token(t, 1, model.RoleAdmin)

	wantMiddlewareError(t, env.do(http.MethodGet, "/api/v1/admin/users", env.token(t, 2, model.RoleEmployer), ""), http.StatusForbidden, jwt.MsgForbidden)
	wantStatus(t, env.do(http.MethodGet, "/api/v1/admin/users", admin, ""), http.StatusOK)

	w := env.do(http.MethodPost, "/api/v1/admin/users/9/resetPassword", admin, "")
	wantStatus(t, w, http.StatusOK)
	var res model.ResetPasswordResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TemporaryPassword == "" {
		t.Fatal("want temporary password in response")
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("want Cache-Control no-store, got %q", got)
	}

	env.users.resetErr = user.ErrUserNotFound
	wantCode(t, env.do(http.MethodPost, "/api/v1/admin/users/9/resetPassword", admin, ""), http.StatusNotFound, server.ErrUserNotFound)
}

func TestUnknownRoleTokenIsDeniedByRoleGates(t *testing.T) {
	env := newEnv(t)

	// Issue refuses unknown roles, so sign the token by hand.
	now := time.Now()
	claims := &model.UserClaim{
		RegisteredClaims: gojwt.RegisteredClaims{
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
		ID:   3,
		Role: "SUPERUSER",
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wantStatus(t, env.do(http.MethodGet, "/api/v1/auth/me", tok, ""), http.StatusOK)
	wantMiddlewareError(t, env.do(http.MethodGet, "/api/v1/admin/users", tok, ""), http.StatusForbidden, jwt.MsgForbidden)
}

func TestTemporaryPasswordTokenIsRestricted(t *testing.T) {
	env := newEnv(t)
	employer := env.issue(t, model.JwtDTO{ID: 11, Role: model.RoleEmployer, PasswordTemporary: true})
	admin := env.issue(t, model.JwtDTO{ID: 1, Role: model.RoleAdmin, PasswordTemporary: true})
	job := `{"title":"Go intern","description":"Write services","kind":"INTERNSHIP"}`

	wantCode(t, env.do(http.MethodPost, "/api/v1/jobs", employer, job), http.StatusForbidden, server.ErrPasswordChangeRequired)
	if env.jobs.employerID != 0 {
		t.Fatal("handler must not run for a temporary password token")
	}
	wantCode(t, env.do(http.MethodGet, "/api/v1/jobs/3/applications", employer, ""), http.StatusForbidden, server.ErrPasswordChangeRequired)
	wantCode(t, env.do(http.MethodGet, "/api/v1/admin/users", admin, ""), http.StatusForbidden, server.ErrPasswordChangeRequired)
	wantCode(t, env.do(http.MethodGet, "/api/v1/notifications/ws", employer, ""), http.StatusForbidden, server.ErrPasswordChangeRequired)

	wantStatus(t, env.do(http.MethodGet, "/api/v1/auth/me", employer, ""), http.StatusOK)
	wantStatus(t, env.do(http.MethodPost, "/api/v1/auth/changePassword", employer, `{"password":"Tmp0rary-pass","newPassword":"Secret456"}`), http.StatusOK)
	if env.auth.gotUserID != 11 {
		t.Fatalf("want user 11, got %d", env.auth.gotUserID)
	}

	// Public and optional-auth routes are not affected.
	wantStatus(t, env.do(http.MethodGet, "/api/v1/jobs", employer, ""), http.StatusOK)
}

func TestMetricsServedApartFromAPI(t *testing.T) {
	env := newEnv(t)
	env.do(http.MethodGet, "/api/v1/auth/me", "", "")

	wantCode(t, env.do(http.MethodGet, "/metrics", "", ""), http.StatusNotFound, "ENDPOINT_NOT_FOUND")

	if env.metrics == nil {
		t.Fatal("metrics listener must be configured")
	}
	w := httptest.NewRecorder()
	env.metrics.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	wantStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "workify_auth_decisions_total") {
		t.Fatalf("want auth decision counter in exposition")
	}
}

func TestMetricsListenerDisabledByDefault(t *testing.T) {
	codec, err := jwt.New(&jwt.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	srv := server.NewServer(":0", server.Deps{Authn: codec, Auth: &fakeAuth{}, Jobs: &fakeJobs{}, Users: &fakeUsers{}})
	if srv.MetricsHandler() != nil {
		t.Fatal("metrics listener must be off without an address")
	}
}
