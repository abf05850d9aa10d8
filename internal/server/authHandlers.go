package server

import (
	"errors"
	"net/http"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/services/auth"
)

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var dto model.RegisterDTO
	if !decodeAndValidate(w, r, &dto) {
		return
	}

	res, err := s.auth.Register(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotUnique):
			ConflictError(w, ErrEmailNotUnique)
		default:
			log.Error().Err(err).Msg("Error registering user")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var dto model.LoginDTO
	if !decodeAndValidate(w, r, &dto) {
		return
	}

	res, err := s.auth.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			UnauthorizedError(w)
		case errors.Is(err, auth.ErrTooManyAttempts):
			TooManyRequestsError(w)
		default:
			log.Error().Err(err).Msg("Error login")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}

	res, err := s.auth.Me(r.Context(), claims.ID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			// The token outlived its account.
			UnauthorizedError(w)
		default:
			log.Error().Err(err).Msg("Error loading identity")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}

	var dto model.ChangePasswordDTO
	if !decodeAndValidate(w, r, &dto) {
		return
	}

	res, err := s.auth.ChangePassword(r.Context(), claims.ID, dto.Password, dto.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
			UnauthorizedError(w)
		default:
			log.Error().Err(err).Msg("Error changing password")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}
