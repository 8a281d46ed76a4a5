package api

import (
	"net/http"

	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/utils"

	"github.com/go-chi/chi/v5"
)

type propertyRequest struct {
	Id          string   `json:"id"`
	Title       string   `json:"title" validate:"notblank,max=200"`
	Price       string   `json:"price" validate:"notblank"`
	Location    string   `json:"location" validate:"notblank"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory"`
	Images      []string `json:"images"`
	Bedrooms    *float64 `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms   *float64 `json:"bathrooms" validate:"omitempty,gte=0"`
	Area        string   `json:"area"`
	Description string   `json:"description" validate:"max=5000"`
	Featured    bool     `json:"featured"`
	Approved    *bool    `json:"approved"`
}

func (req propertyRequest) toModel() model.Property {
	p := model.Property{
		Id:          req.Id,
		Title:       req.Title,
		Price:       req.Price,
		Location:    req.Location,
		Type:        req.Type,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Images:      req.Images,
		Area:        req.Area,
		Description: req.Description,
		Featured:    req.Featured,
		Approved:    req.Approved,
	}
	if req.Bedrooms != nil {
		p.Bedrooms = model.NumberCount(*req.Bedrooms)
	}
	if req.Bathrooms != nil {
		p.Bathrooms = model.NumberCount(*req.Bathrooms)
	}
	return p
}

type approvalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ListPending lists the live properties waiting for approval.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.all.Snapshot(), func(properties []model.Property) []model.Property {
		pending := make([]model.Property, 0)
		for _, p := range properties {
			if p.Approved != nil && !*p.Approved {
				pending = append(pending, p)
			}
		}
		return pending
	})
}

// CreateProperty stores a listing. Admin-created listings are approved unless the body says otherwise.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p := req.toModel()
	if p.Approved == nil {
		p.Approved = utils.BoolToPointer(true)
	}

	id, err := h.properties.Create(r.Context(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.properties.Update(r.Context(), id, req.toModel()); err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.properties.SetApproved(r.Context(), id, *req.Approved); err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"id": id, "approved": *req.Approved})
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.properties.Delete(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	s := h.stats.Snapshot()
	if s.Err != nil {
		writeJSON(w, statusOf(s.Code), envelope{Error: s.ErrMessage, Code: s.Code})
		return
	}
	writeData(w, http.StatusOK, s)
}

func (h *Handler) ReconcileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.migrator.Reconcile(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *Handler) MigrateStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.migrator.Migrate(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *Handler) CleanupLegacyStats(w http.ResponseWriter, r *http.Request) {
	if err := h.migrator.CleanupLegacy(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
