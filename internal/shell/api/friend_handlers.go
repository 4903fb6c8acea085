package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artpar/mingle/internal/shell/store"
)

// =============================================================================
// Friend Handlers
// =============================================================================

func (h *Handler) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req FriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	friend, err := h.store.GetUserByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.serverError(w, "add friend", err)
		return
	}

	// Adding yourself is a no-op.
	if friend.ID != user.ID {
		if err := h.store.AddFriend(r.Context(), user.ID, friend.ID); err != nil {
			h.serverError(w, "add friend", err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req FriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Unknown logins and non-friends are no-ops: removal always succeeds.
	friend, err := h.store.GetUserByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
			return
		}
		h.serverError(w, "remove friend", err)
		return
	}

	if err := h.store.RemoveFriend(r.Context(), user.ID, friend.ID); err != nil {
		h.serverError(w, "remove friend", err)
		return
	}

	h.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) handleListFriends(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.store.ListFriends(r.Context(), user.ID, parseListOptions(r))
	if err != nil {
		h.serverError(w, "list friends", err)
		return
	}

	resp := make([]FriendResponse, 0, len(friends))
	for _, f := range friends {
		resp = append(resp, FriendResponse{Login: f.Login, AddedAt: f.AddedAt})
	}
	h.writeJSON(w, http.StatusOK, resp)
}
