package api

import (
	"errors"
	"net/http"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/listing"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/search"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type listingResponse struct {
	Seq        uint64           `json:"seq"`
	Loading    bool             `json:"loading"`
	Total      int              `json:"total"`
	Properties []model.Property `json:"properties"`
	Rejected   int              `json:"rejected,omitempty"`
}

// writeSnapshot answers with the snapshot's error state, or with filter applied to its properties.
func writeSnapshot(w http.ResponseWriter, s listing.Snapshot, filter func([]model.Property) []model.Property) {
	if s.Err != nil {
		writeJSON(w, statusOf(s.Code), envelope{Error: s.ErrMessage, Code: s.Code})
		return
	}

	properties := s.Properties
	if filter != nil {
		properties = filter(properties)
	}

	writeData(w, http.StatusOK, listingResponse{
		Seq:        s.Seq,
		Loading:    s.Loading,
		Total:      len(s.Properties),
		Properties: properties,
		Rejected:   len(s.Rejected),
	})
}

// ListProperties filters the live list with q (dropdown search), manual (free text, wins over q)
// and type. category restricts the result to one category page, and the type is then matched the
// way that page matches it.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dropdown := search.SanitizeSearchInput(query.Get("q"))
	manual := search.SanitizeSearchInput(query.Get("manual"))
	propertyType := query.Get("type")
	if propertyType == "" {
		propertyType = search.AllTypes
	}
	category := query.Get("category")

	writeSnapshot(w, h.all.Snapshot(), func(properties []model.Property) []model.Property {
		if category == "" {
			return search.FilterProperties(properties, dropdown, manual, propertyType)
		}
		properties = search.FilterByCategory(search.FilterProperties(properties, dropdown, manual, search.AllTypes), category)
		return search.FilterByCategoryType(properties, category, propertyType)
	})
}

func (h *Handler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.featured.Snapshot(), nil)
}

// GetProperty answers from the live list and falls back to a direct read for listings the live
// list does not hold.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if p, ok := h.all.Find(id); ok {
		writeData(w, http.StatusOK, p)
		return
	}

	p, err := h.properties.GetById(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// RetryListing re-subscribes both live lists.
func (h *Handler) RetryListing(w http.ResponseWriter, r *http.Request) {
	var errs []error
	for _, v := range []ListingView{h.all, h.featured} {
		if err := v.Retry(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Msg("failed to retry listing subscriptions")
		writeError(w, http.StatusServiceUnavailable, ierr.Message(err))
		return
	}
	writeData(w, http.StatusAccepted, h.all.Snapshot())
}

func (h *Handler) NotImplemented(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, ierr.ErrNotImplemented)
}
