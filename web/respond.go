package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/voxway/voxgate/domain/apierr"
)

// errorEnvelope is the fixed error response shape.
type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError translates an error into the envelope. Anything that is
// not an apierr.E becomes a 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var e *apierr.E
	if !errors.As(err, &e) {
		logger.Error().Err(err).Msg("unhandled request error")
		e = apierr.Internal
	}
	writeJSON(w, e.Status, errorEnvelope{Error: e.Message})
}

// decodeBody parses a JSON request body into dst and validates it.
func (h *Handler) decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("Invalid JSON body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apierr.Validation(validationMessage(err))
	}
	return nil
}

// validationMessage renders the first failed field check as the
// envelope message.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email"
	case "min":
		return fe.Field() + " is too short"
	default:
		return "Invalid " + fe.Field()
	}
}
