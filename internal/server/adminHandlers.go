package server

import (
	"errors"
	"net/http"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/services/user"
)

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	q, errs := model.ParseUserListQuery(r.URL.Query())
	if len(errs) > 0 {
		ValidationError(w, errs)
		return
	}

	res, err := s.users.List(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users")
		InternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) resetUserPasswordHandler(w http.ResponseWriter, r *http.Request) {
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

	password, err := s.users.ResetPassword(r.Context(), claims.ID, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			EntityNotFoundError(w, ErrUserNotFound)
			return
		}
		log.Error().Err(err).Msg("Error resetting password")
		InternalError(w)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.ResetPasswordResponse{TemporaryPassword: password})
}
