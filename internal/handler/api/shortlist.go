package api

import (
	"net/http"
	"time"

	"go-firestore-estate/internal/model"

	"github.com/go-chi/chi/v5"
)

type shortlistResponse struct {
	Entries    []model.ShortlistEntry `json:"entries"`
	Properties []model.Property       `json:"properties"`
	// Missing lists shortlisted ids that are not in the live list anymore.
	Missing []string `json:"missing,omitempty"`
}

func (h *Handler) ListShortlist(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	entries, err := h.users.ListShortlist(r.Context(), identity.UID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp := shortlistResponse{Entries: entries, Properties: make([]model.Property, 0, len(entries))}
	for _, e := range entries {
		if p, ok := h.all.Find(e.PropertyId); ok {
			resp.Properties = append(resp.Properties, p)
			continue
		}
		resp.Missing = append(resp.Missing, e.PropertyId)
	}
	writeData(w, http.StatusOK, resp)
}

func (h *Handler) IsShortlisted(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	ok, err := h.users.IsShortlisted(r.Context(), identity.UID, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"shortlisted": ok})
}

func (h *Handler) AddShortlist(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	id := chi.URLParam(r, "id")

	if _, ok := h.all.Find(id); !ok {
		if _, err := h.properties.GetById(r.Context(), id); err != nil {
			writeFailure(w, err)
			return
		}
	}

	if err := h.users.AddShortlist(r.Context(), identity.UID, id, time.Now().UTC()); err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"shortlisted": true})
}

func (h *Handler) RemoveShortlist(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	if err := h.users.RemoveShortlist(r.Context(), identity.UID, chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"shortlisted": false})
}
