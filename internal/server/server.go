package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/metrics"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var log zerolog.Logger

type Auth interface {
	Register(ctx context.Context, dto model.RegisterDTO) (*model.LoginResponse, error)
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	Me(ctx context.Context, userID int64) (*model.Identity, error)
	ChangePassword(ctx context.Context, userID int64, password, newPassword string) (*model.LoginResponse, error)
}

type Jobs interface {
	List(ctx context.Context, viewer *model.UserClaim, q model.JobListQuery) (*model.JobListResponse, error)
	Get(ctx context.Context, viewer *model.UserClaim, id int64) (*model.JobResponse, error)
	Create(ctx context.Context, employerID int64, dto model.CreateJobDTO) (*model.Job, error)
	Apply(ctx context.Context, studentID, jobID int64, dto model.ApplyDTO) (*model.Application, error)
	ListApplications(ctx context.Context, requester model.UserClaim, jobID int64) ([]model.Application, error)
}

type Users interface {
	List(ctx context.Context, q model.UserListQuery) (*model.UserListResponse, error)
	ResetPassword(ctx context.Context, adminID, userID int64) (string, error)
}

// Authenticator provides the required and optional identity middleware.
type Authenticator interface {
	RequireAuth(next http.Handler) http.Handler
	MaybeAuth(next http.Handler) http.Handler
}

type websocketUpgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (*websocket.Conn, error)
}

type Server struct {
	srv        *http.Server
	metricsSrv *http.Server
	handler    http.Handler
	auth       Auth
	jobs       Jobs
	users      Users
	wsHub      *ws.Hub
	wsUpgrader websocketUpgrader
}

type Deps struct {
	Authn          Authenticator
	Auth           Auth
	Jobs           Jobs
	Users          Users
	Hub            *ws.Hub
	AllowedOrigins []string
	// MetricsAddress is where /metrics is served, apart from the API.
	// Empty disables the metrics listener.
	MetricsAddress string
}

func NewServer(addr string, deps Deps) *Server {
	log = *logger.Log
	log = log.With().Str("name", "http").Logger()

	r := chi.NewRouter()

	hub := deps.Hub
	if hub == nil {
		hub = ws.NewHub()
	}

	s := &Server{
		srv:        &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: time.Second * 10},
		handler:    r,
		auth:       deps.Auth,
		jobs:       deps.Jobs,
		users:      deps.Users,
		wsHub:      hub,
		wsUpgrader: ws.NewUpgrader(deps.AllowedOrigins),
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	if deps.MetricsAddress != "" {
		mr := chi.NewRouter()
		mr.Method(http.MethodGet, `/metrics`, metrics.Handler())
		s.metricsSrv = &http.Server{Addr: deps.MetricsAddress, Handler: mr, ReadHeaderTimeout: time.Second * 10}
	}

	r.Group(func(r chi.Router) {
		r.Get(`/api/v1/health`, healthHandler)

		r.Post(`/api/v1/auth/register`, s.registerHandler)
		r.Post(`/api/v1/auth/login`, s.loginHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Authn.MaybeAuth)

		r.Get(`/api/v1/jobs`, s.listJobsHandler)
		r.Get(`/api/v1/jobs/{id}`, s.getJobHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Authn.RequireAuth)

		r.Get(`/api/v1/auth/me`, s.meHandler)
		r.Post(`/api/v1/auth/changePassword`, s.changePasswordHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Authn.RequireAuth)
		r.Use(s.requirePermanentPassword)

		r.Get(`/api/v1/notifications/ws`, s.notificationsWSHandler)

		r.Group(func(r chi.Router) {
			r.Use(jwt.RequireRole(model.RoleEmployer, model.RoleAdmin))

			r.Post(`/api/v1/jobs`, s.createJobHandler)
			r.Get(`/api/v1/jobs/{id}/applications`, s.listApplicationsHandler)
		})

		r.With(jwt.RequireRole(model.RoleStudent)).Post(`/api/v1/jobs/{id}/apply`, s.applyHandler)

		r.Group(func(r chi.Router) {
			r.Use(jwt.RequireRole(model.RoleAdmin))

			r.Get(`/api/v1/admin/users`, s.listUsersHandler)
			r.Post(`/api/v1/admin/users/{id}/resetPassword`, s.resetUserPasswordHandler)
		})
	})

	r.HandleFunc(`/*`, notFoundHandler)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Hub() *ws.Hub {
	return s.wsHub
}

func (s *Server) Run(ctx context.Context, runner *errgroup.Group) {
	log.Info().Str("addr", s.srv.Addr).Msg("Http server started.")

	runner.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if s.metricsSrv != nil {
		log.Info().Str("addr", s.metricsSrv.Addr).Msg("Metrics server started.")

		runner.Go(func() error {
			if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}
}

// MetricsHandler is the handler served on the metrics listener, nil when
// it is disabled.
func (s *Server) MetricsHandler() http.Handler {
	if s.metricsSrv == nil {
		return nil
	}
	return s.metricsSrv.Handler
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Http server stopped.")

	nctx, stop := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer stop()

	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(nctx); err != nil {
			log.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	return s.srv.Shutdown(nctx)
}
