package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/artpar/mingle/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Post field limits.
const (
	maxPostContentLen = 1000
	maxPostTagLen     = 20
)

// =============================================================================
// Post Handlers
// =============================================================================

func (h *Handler) handleNewPost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req NewPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "content must not be empty")
		return
	}
	if len(req.Content) > maxPostContentLen {
		h.writeError(w, http.StatusBadRequest, "content too long")
		return
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	for _, tag := range tags {
		if len(tag) > maxPostTagLen {
			h.writeError(w, http.StatusBadRequest, "invalid tag")
			return
		}
	}

	post := &domain.Post{
		ID:        uuid.New().String(),
		Content:   req.Content,
		AuthorID:  user.ID,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreatePost(r.Context(), post); err != nil {
		h.serverError(w, "create post", err)
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post, user.Login))
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	post, author, ok := h.loadVisiblePost(w, r, user)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post, author.Login))
}

func (h *Handler) handleMyFeed(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.store.ListPostsByAuthor(r.Context(), user.ID, parseListOptions(r))
	if err != nil {
		h.serverError(w, "list posts", err)
		return
	}

	h.writeJSON(w, http.StatusOK, postsToResponse(posts, user.Login))
}

func (h *Handler) handleUserFeed(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	// An inaccessible feed is indistinguishable from a missing one: both
	// answer 404, the same way single posts behave.
	login := chi.URLParam(r, "login")
	owner, err := h.store.GetUserByLogin(r.Context(), login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.serverError(w, "get feed", err)
		return
	}

	allowed, err := h.canView(r, viewer, owner)
	if err != nil {
		h.serverError(w, "check friendship", err)
		return
	}
	if !allowed {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	posts, err := h.store.ListPostsByAuthor(r.Context(), owner.ID, parseListOptions(r))
	if err != nil {
		h.serverError(w, "list posts", err)
		return
	}

	h.writeJSON(w, http.StatusOK, postsToResponse(posts, owner.Login))
}

// =============================================================================
// Reaction Handlers
// =============================================================================

func (h *Handler) handleLikePost(w http.ResponseWriter, r *http.Request) {
	h.handleReaction(w, r, domain.ReactionLike)
}

func (h *Handler) handleDislikePost(w http.ResponseWriter, r *http.Request) {
	h.handleReaction(w, r, domain.ReactionDislike)
}

// handleReaction switches the caller's reaction on a post. The reaction row
// and the post counters move in one transaction; repeating the same reaction
// is a no-op.
func (h *Handler) handleReaction(w http.ResponseWriter, r *http.Request, reaction domain.ReactionType) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	post, author, ok := h.loadVisiblePost(w, r, user)
	if !ok {
		return
	}

	err := h.store.WithTx(r.Context(), func(tx store.Store) error {
		previous := domain.ReactionNone
		existing, err := tx.GetReaction(r.Context(), user.ID, post.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if existing != nil {
			previous = existing.Type
		}

		if previous == reaction {
			return nil
		}

		if err := tx.UpsertReaction(r.Context(), &domain.Reaction{
			UserID: user.ID,
			PostID: post.ID,
			Type:   reaction,
		}); err != nil {
			return err
		}

		likes, dislikes := reactionDeltas(previous, reaction)
		return tx.AdjustPostCounters(r.Context(), post.ID, likes, dislikes)
	})
	if err != nil {
		h.serverError(w, "apply reaction", err)
		return
	}

	updated, err := h.store.GetPost(r.Context(), post.ID)
	if err != nil {
		h.serverError(w, "get post", err)
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(updated, author.Login))
}

// reactionDeltas returns the counter adjustments for moving from one
// reaction to another.
func reactionDeltas(from, to domain.ReactionType) (likes, dislikes int) {
	switch from {
	case domain.ReactionLike:
		likes--
	case domain.ReactionDislike:
		dislikes--
	}
	switch to {
	case domain.ReactionLike:
		likes++
	case domain.ReactionDislike:
		dislikes++
	}
	return likes, dislikes
}

// =============================================================================
// Helpers
// =============================================================================

// loadVisiblePost fetches the post named in the URL and checks that the
// viewer may see its author's posts. Hidden posts answer 404, same as
// missing ones.
func (h *Handler) loadVisiblePost(w http.ResponseWriter, r *http.Request, viewer *domain.User) (*domain.Post, *domain.User, bool) {
	postID := chi.URLParam(r, "postID")

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "post not found")
			return nil, nil, false
		}
		h.serverError(w, "get post", err)
		return nil, nil, false
	}

	author, err := h.store.GetUserByID(r.Context(), post.AuthorID)
	if err != nil {
		h.serverError(w, "get post author", err)
		return nil, nil, false
	}

	allowed, err := h.canView(r, viewer, author)
	if err != nil {
		h.serverError(w, "check friendship", err)
		return nil, nil, false
	}
	if !allowed {
		h.writeError(w, http.StatusNotFound, "post not found")
		return nil, nil, false
	}

	return post, author, true
}

func postsToResponse(posts []domain.Post, authorLogin string) []PostResponse {
	resp := make([]PostResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, postToResponse(&posts[i], authorLogin))
	}
	return resp
}
