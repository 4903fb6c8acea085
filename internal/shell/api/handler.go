// Package api provides HTTP handlers for the mingle API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/artpar/mingle/internal/core/identity"
	"github.com/artpar/mingle/internal/core/validation"
	apimiddleware "github.com/artpar/mingle/internal/shell/api/middleware"
	"github.com/artpar/mingle/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store  store.Store
	issuer *identity.TokenIssuer
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, issuer *identity.TokenIssuer, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		store:  s,
		issuer: issuer,
		logger: l,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)

	auth := apimiddleware.NewAuthMiddleware(h.issuer, h.store, h.logger)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/ping", h.handlePing)
		r.Get("/countries", h.handleListCountries)
		r.Get("/countries/{alpha2}", h.handleGetCountry)
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/sign-in", h.handleSignIn)

		// Private routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Handler)

			r.Get("/me/profile", h.handleMyProfile)
			r.Patch("/me/profile", h.handleUpdateProfile)
			r.Post("/me/updatePassword", h.handleUpdatePassword)
			r.Get("/profiles/{login}", h.handleGetProfile)

			r.Post("/friends/add", h.handleAddFriend)
			r.Post("/friends/remove", h.handleRemoveFriend)
			r.Get("/friends", h.handleListFriends)

			r.Post("/posts/new", h.handleNewPost)
			r.Get("/posts/feed/my", h.handleMyFeed)
			r.Get("/posts/feed/{login}", h.handleUserFeed)
			r.Get("/posts/{postID}", h.handleGetPost)
			r.Post("/posts/{postID}/like", h.handleLikePost)
			r.Post("/posts/{postID}/dislike", h.handleDislikePost)
		})
	})

	return r
}

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Ping Handler
// =============================================================================

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// =============================================================================
// Country Handlers
// =============================================================================

func (h *Handler) handleListCountries(w http.ResponseWriter, r *http.Request) {
	region := domain.Region(r.URL.Query().Get("region"))
	if region != "" && !domain.ValidRegion(region) {
		h.writeError(w, http.StatusBadRequest, "unknown region")
		return
	}

	countries, err := h.store.ListCountries(r.Context(), region)
	if err != nil {
		h.serverError(w, "list countries", err)
		return
	}

	resp := make([]CountryResponse, 0, len(countries))
	for _, c := range countries {
		resp = append(resp, CountryResponse{
			Name:   c.Name,
			Alpha2: c.Alpha2,
			Alpha3: c.Alpha3,
			Region: string(c.Region),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	alpha2 := chi.URLParam(r, "alpha2")
	if !validation.ValidCountryCode(alpha2) {
		h.writeError(w, http.StatusBadRequest, "malformed country code")
		return
	}
	alpha2 = strings.ToUpper(alpha2)

	country, err := h.store.GetCountryByAlpha2(r.Context(), alpha2)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "country with code "+alpha2+" not found")
			return
		}
		h.serverError(w, "get country", err)
		return
	}

	h.writeJSON(w, http.StatusOK, CountryResponse{
		Name:   country.Name,
		Alpha2: country.Alpha2,
		Alpha3: country.Alpha3,
		Region: string(country.Region),
	})
}

// =============================================================================
// Auth Handlers
// =============================================================================

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if field, ok := validation.ValidateStruct(req); !ok {
		h.writeError(w, http.StatusBadRequest, "invalid "+field)
		return
	}

	countryCode := strings.ToUpper(req.CountryCode)
	if _, err := h.store.GetCountryByAlpha2(r.Context(), countryCode); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "unknown country code")
			return
		}
		h.serverError(w, "check country", err)
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, "hash password", err)
		return
	}

	user := &domain.User{
		Login:        req.Login,
		Email:        req.Email,
		PasswordHash: hash,
		CountryCode:  countryCode,
		IsPublic:     req.IsPublic,
		Phone:        optionalString(req.Phone),
		Image:        optionalString(req.Image),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateLogin):
			h.writeError(w, http.StatusConflict, "login already taken")
		case errors.Is(err, store.ErrDuplicateEmail):
			h.writeError(w, http.StatusConflict, "email already taken")
		case errors.Is(err, store.ErrDuplicatePhone):
			h.writeError(w, http.StatusConflict, "phone already taken")
		case errors.Is(err, store.ErrForeignKey):
			h.writeError(w, http.StatusBadRequest, "unknown country code")
		default:
			h.serverError(w, "create user", err)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, RegisterResponse{Profile: profileToResponse(user)})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.store.GetUserByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		h.serverError(w, "sign in", err)
		return
	}

	if err := identity.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	token, err := h.issuer.Mint(user.Login)
	if err != nil {
		h.serverError(w, "mint token", err)
		return
	}

	h.writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, reason string) {
	h.writeJSON(w, status, ErrorResponse{Reason: reason})
}

// serverError logs the cause and answers with a generic 500 body.
func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("internal error", "op", op, "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

// currentUser returns the authenticated user stored by the auth middleware.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// parseListOptions reads offset/limit query parameters.
func parseListOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	return opts.Normalize()
}

func profileToResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		Login:       u.Login,
		Email:       u.Email,
		CountryCode: u.CountryCode,
		IsPublic:    u.IsPublic,
		Phone:       u.Phone,
		Image:       u.Image,
	}
}

func postToResponse(p *domain.Post, authorLogin string) PostResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostResponse{
		ID:            p.ID,
		Content:       p.Content,
		Author:        authorLogin,
		Tags:          tags,
		CreatedAt:     p.CreatedAt,
		LikesCount:    p.LikesCount,
		DislikesCount: p.DislikesCount,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
