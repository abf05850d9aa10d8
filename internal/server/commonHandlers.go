package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Heidric/workify/internal/model"
	"github.com/go-chi/chi"
)

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	NotFoundError(w)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeAndValidate writes the error response itself and reports whether
// the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dto model.Validator) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		log.Error().Err(err).Msg("Error parsing request body")
		ParsingError(w)
		return false
	}

	if errs := dto.Validate(); len(errs) > 0 {
		log.Warn().Msgf("Error validating request body: %v", errs)
		ValidationError(w, errs)
		return false
	}

	return true
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
