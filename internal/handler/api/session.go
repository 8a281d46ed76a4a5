package api

import (
	"net/http"
	"time"

	"go-firestore-estate/internal/auth"
	ierr "go-firestore-estate/internal/errors"

	"github.com/rs/zerolog/log"
)

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type meResponse struct {
	Status    auth.Status `json:"status"`
	UID       string      `json:"uid,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      string      `json:"role,omitempty"`
	RoleError string      `json:"roleError,omitempty"`
	IsAdmin   bool        `json:"isAdmin"`
	Access    auth.Access `json:"access"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.signer == nil {
		writeFailure(w, ierr.ErrNotImplemented)
		return
	}

	var req signInRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	identity, err := h.signer.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}

	log.Info().Msgf("signed in uid %s", identity.UID)
	writeData(w, http.StatusOK, signInResponse{
		UID:          identity.UID,
		Email:        identity.Email,
		IDToken:      identity.IDToken,
		RefreshToken: identity.RefreshToken,
		ExpiresAt:    identity.ExpiresAt,
	})
}

// SignOut revokes every refresh token of the caller.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	if err := h.tokens.Revoke(r.Context(), identity.UID); err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"signedOut": true})
}

// Me reports the resolved gate state for the caller's token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	state := auth.Resolve(r.Context(), h.users, identityFrom(r.Context()))

	resp := meResponse{
		Status:    state.Status,
		Role:      state.Role,
		RoleError: state.RoleError,
		IsAdmin:   state.IsAdmin(),
		Access:    state.Access(),
	}
	if state.Identity != nil {
		resp.UID = state.Identity.UID
		resp.Email = state.Identity.Email
	}
	writeData(w, http.StatusOK, resp)
}
