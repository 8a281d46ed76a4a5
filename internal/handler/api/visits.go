package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	visitorCookie    = "visitor_id"
	visitorCookieAge = 365 * 24 * time.Hour
)

// RecordVisit counts a page view for the visitor_id cookie and issues one when it is missing.
func (h *Handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	visitorID := ""
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			visitorID = c.Value
		}
	}

	if visitorID == "" {
		visitorID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookie,
			Value:    visitorID,
			Path:     "/",
			MaxAge:   int(visitorCookieAge.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}

	first, err := h.recorder.RecordVisit(r.Context(), visitorID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"firstVisit": first})
}
