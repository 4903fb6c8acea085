package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/artpar/mingle/internal/core/identity"
	"github.com/artpar/mingle/internal/core/validation"
	"github.com/artpar/mingle/internal/shell/store"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// Profile Handlers
// =============================================================================

func (h *Handler) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, profileToResponse(user))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.CountryCode != nil {
		if !validation.ValidCountryCode(*req.CountryCode) {
			h.writeError(w, http.StatusBadRequest, "invalid countrycode")
			return
		}
		code := strings.ToUpper(*req.CountryCode)
		if _, err := h.store.GetCountryByAlpha2(r.Context(), code); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				h.writeError(w, http.StatusBadRequest, "unknown country code")
				return
			}
			h.serverError(w, "check country", err)
			return
		}
		user.CountryCode = code
	}
	if req.IsPublic != nil {
		user.IsPublic = *req.IsPublic
	}
	if req.Phone != nil {
		if !validation.ValidPhone(*req.Phone) {
			h.writeError(w, http.StatusBadRequest, "invalid phone")
			return
		}
		user.Phone = optionalString(*req.Phone)
	}
	if req.Image != nil {
		if !validation.ValidImage(*req.Image) {
			h.writeError(w, http.StatusBadRequest, "invalid image")
			return
		}
		user.Image = optionalString(*req.Image)
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicatePhone):
			h.writeError(w, http.StatusConflict, "phone already taken")
		case errors.Is(err, store.ErrForeignKey):
			h.writeError(w, http.StatusBadRequest, "unknown country code")
		default:
			h.serverError(w, "update profile", err)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, profileToResponse(user))
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := identity.VerifyPassword(req.OldPassword, user.PasswordHash); err != nil {
		h.writeError(w, http.StatusForbidden, "wrong password")
		return
	}

	if !validation.ValidPassword(req.NewPassword) {
		h.writeError(w, http.StatusBadRequest, "invalid newpassword")
		return
	}

	hash, err := identity.HashPassword(req.NewPassword)
	if err != nil {
		h.serverError(w, "hash password", err)
		return
	}
	user.PasswordHash = hash

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.serverError(w, "update password", err)
		return
	}

	h.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	// Unknown logins answer the same 403 as private profiles, so the
	// endpoint does not reveal which logins exist.
	login := chi.URLParam(r, "login")
	owner, err := h.store.GetUserByLogin(r.Context(), login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusForbidden, "profile is private")
			return
		}
		h.serverError(w, "get profile", err)
		return
	}

	allowed, err := h.canView(r, viewer, owner)
	if err != nil {
		h.serverError(w, "check friendship", err)
		return
	}
	if !allowed {
		h.writeError(w, http.StatusForbidden, "profile is private")
		return
	}

	h.writeJSON(w, http.StatusOK, profileToResponse(owner))
}

// canView applies the profile visibility rule: self, public owner, or the
// owner added the viewer as a friend.
func (h *Handler) canView(r *http.Request, viewer, owner *domain.User) (bool, error) {
	if viewer.ID == owner.ID || owner.IsPublic {
		return true, nil
	}
	isFriend, err := h.store.IsFriend(r.Context(), owner.ID, viewer.ID)
	if err != nil {
		return false, err
	}
	return identity.CanViewProfile(viewer, owner, isFriend), nil
}
