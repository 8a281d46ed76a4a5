package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	ierr "go-firestore-estate/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Code    ierr.Code           `json:"code,omitempty"`
	Details []map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("unable to write response stream")
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

// writeFailure maps err to a status code. Backend errors are answered with a message safe to show.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ierr.NotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, ierr.ErrInvalidProperty):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ierr.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ierr.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, ierr.ErrInvalidCredentials.Error())
		return
	case errors.Is(err, ierr.ErrNotSignedIn):
		writeError(w, http.StatusUnauthorized, ierr.ErrNotSignedIn.Error())
		return
	case errors.Is(err, ierr.ErrNotImplemented):
		writeError(w, http.StatusNotImplemented, ierr.ErrNotImplemented.Error())
		return
	case errors.Is(err, ierr.ErrCleanupDisabled):
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	code := ierr.Classify(err)
	log.Error().Err(err).Msgf("request failed, code: %s", code)
	writeJSON(w, statusOf(code), envelope{Error: ierr.Message(err), Code: code})
}

func statusOf(code ierr.Code) int {
	switch code {
	case ierr.CodePermissionDenied:
		return http.StatusForbidden
	case ierr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case ierr.CodeUnavailable:
		return http.StatusServiceUnavailable
	case ierr.CodeNotFound:
		return http.StatusNotFound
	case ierr.CodeCanceled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

var (
	errRequired     = errors.New("is required")
	errNotNegative  = errors.New("must not be negative")
	errTooLong      = errors.New("is too long")
	errInvalidEmail = errors.New("must be a valid email address")
)

var customErrors = map[string]error{
	"propertyRequest.Title.notblank":    errRequired,
	"propertyRequest.Title.max":         errTooLong,
	"propertyRequest.Price.notblank":    errRequired,
	"propertyRequest.Location.notblank": errRequired,
	"propertyRequest.Description.max":   errTooLong,
	"propertyRequest.Images.required":   errRequired,
	"propertyRequest.Bedrooms.gte":      errNotNegative,
	"propertyRequest.Bathrooms.gte":     errNotNegative,
	"approvalRequest.Approved.required": errRequired,
	"signInRequest.Email.required":      errRequired,
	"signInRequest.Email.email":         errInvalidEmail,
	"signInRequest.Password.required":   errRequired,
}

func validationDetails(err error) []map[string]string {
	details := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return details
	}

	for _, e := range validationErr {
		key := e.StructNamespace() + "." + e.Tag()

		msg := fmt.Sprintf("%s is invalid", e.Field())
		if v, ok := customErrors[key]; ok {
			msg = v.Error()
		}
		details = append(details, map[string]string{e.Field(): msg})
	}
	return details
}

// decodeAndValidate answers 400 itself and reports false when the body is unusable.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debug().Err(err).Msg("failed to decode json")
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		log.Debug().Err(err).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, envelope{Error: "validation failed", Details: validationDetails(err)})
		return false
	}
	return true
}
