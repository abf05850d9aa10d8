package server

import (
	"errors"
	"net/http"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/services/job"
)

// viewer returns the optional identity attached by MaybeAuth.
func viewer(r *http.Request) *model.UserClaim {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return &claims
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	q, errs := model.ParseJobListQuery(r.URL.Query())
	if len(errs) > 0 {
		ValidationError(w, errs)
		return
	}

	res, err := s.jobs.List(r.Context(), viewer(r), q)
	if err != nil {
		log.Error().Err(err).Msg("Error listing jobs")
		InternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		BadRequestError(w)
		return
	}

	res, err := s.jobs.Get(r.Context(), viewer(r), id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			EntityNotFoundError(w, ErrJobNotFound)
			return
		}
		log.Error().Err(err).Msg("Error getting job")
		InternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}

	var dto model.CreateJobDTO
	if !decodeAndValidate(w, r, &dto) {
		return
	}

	res, err := s.jobs.Create(r.Context(), claims.ID, dto)
	if err != nil {
		log.Error().Err(err).Msg("Error creating job")
		InternalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) applyHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		BadRequestError(w)
		return
	}

	var dto model.ApplyDTO
	if !decodeAndValidate(w, r, &dto) {
		return
	}

	res, err := s.jobs.Apply(r.Context(), claims.ID, id, dto)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			EntityNotFoundError(w, ErrJobNotFound)
		case errors.Is(err, job.ErrAlreadyApplied):
			ConflictError(w, ErrAlreadyApplied)
		default:
			log.Error().Err(err).Msg("Error applying to job")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		BadRequestError(w)
		return
	}

	apps, err := s.jobs.ListApplications(r.Context(), claims, id)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			EntityNotFoundError(w, ErrJobNotFound)
		case errors.Is(err, job.ErrNotJobOwner):
			ForbiddenError(w)
		default:
			log.Error().Err(err).Msg("Error listing applications")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.ApplicationListResponse{Items: apps})
}
