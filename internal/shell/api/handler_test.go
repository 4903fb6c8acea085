package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/artpar/mingle/internal/core/identity"
	"github.com/artpar/mingle/internal/shell/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Stub Store
// =============================================================================

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	countries  map[string]domain.Country
	users      map[string]*domain.User
	nextUserID int
	friends    map[string]time.Time // "userID:friendID"
	posts      map[string]*domain.Post
	reactions  map[string]domain.ReactionType // "userID:postID"
}

func newStubStore() *stubStore {
	return &stubStore{
		countries: map[string]domain.Country{
			"RU": {ID: 1, Name: "Russian Federation", Alpha2: "RU", Alpha3: "RUS", Region: domain.RegionEurope},
			"GB": {ID: 2, Name: "United Kingdom", Alpha2: "GB", Alpha3: "GBR", Region: domain.RegionEurope},
			"JP": {ID: 3, Name: "Japan", Alpha2: "JP", Alpha3: "JPN", Region: domain.RegionAsia},
		},
		users:     make(map[string]*domain.User),
		friends:   make(map[string]time.Time),
		posts:     make(map[string]*domain.Post),
		reactions: make(map[string]domain.ReactionType),
	}
}

func friendKey(userID, friendID int) string { return fmt.Sprintf("%d:%d", userID, friendID) }

func (s *stubStore) ListCountries(_ context.Context, region domain.Region) ([]domain.Country, error) {
	var out []domain.Country
	for _, c := range s.countries {
		if region == "" || c.Region == region {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alpha2 < out[j].Alpha2 })
	return out, nil
}

func (s *stubStore) GetCountryByAlpha2(_ context.Context, alpha2 string) (*domain.Country, error) {
	if c, ok := s.countries[alpha2]; ok {
		return &c, nil
	}
	return nil, store.NewStoreError("GetCountryByAlpha2", "country", alpha2, "country not found", store.ErrNotFound)
}

func (s *stubStore) CreateUser(_ context.Context, user *domain.User) error {
	for _, u := range s.users {
		if u.Login == user.Login {
			return store.NewStoreError("CreateUser", "user", user.Login, "login taken", store.ErrDuplicateLogin)
		}
		if u.Email == user.Email {
			return store.NewStoreError("CreateUser", "user", user.Login, "email taken", store.ErrDuplicateEmail)
		}
		if u.Phone != nil && user.Phone != nil && *u.Phone == *user.Phone {
			return store.NewStoreError("CreateUser", "user", user.Login, "phone taken", store.ErrDuplicatePhone)
		}
	}
	if _, ok := s.countries[user.CountryCode]; !ok {
		return store.NewStoreError("CreateUser", "user", user.Login, "unknown country", store.ErrForeignKey)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	clone := *user
	s.users[user.Login] = &clone
	return nil
}

func (s *stubStore) GetUserByID(_ context.Context, id int) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.NewStoreError("GetUserByID", "user", fmt.Sprint(id), "user not found", store.ErrNotFound)
}

func (s *stubStore) GetUserByLogin(_ context.Context, login string) (*domain.User, error) {
	if u, ok := s.users[login]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, store.NewStoreError("GetUserByLogin", "user", login, "user not found", store.ErrNotFound)
}

func (s *stubStore) UpdateUser(_ context.Context, user *domain.User) error {
	for _, u := range s.users {
		if u.ID != user.ID && u.Phone != nil && user.Phone != nil && *u.Phone == *user.Phone {
			return store.NewStoreError("UpdateUser", "user", user.Login, "phone taken", store.ErrDuplicatePhone)
		}
	}
	for login, u := range s.users {
		if u.ID == user.ID {
			clone := *user
			s.users[login] = &clone
			return nil
		}
	}
	return store.NewStoreError("UpdateUser", "user", user.Login, "user not found", store.ErrNotFound)
}

func (s *stubStore) AddFriend(_ context.Context, userID, friendID int) error {
	key := friendKey(userID, friendID)
	if _, ok := s.friends[key]; !ok {
		s.friends[key] = time.Now().UTC()
	}
	return nil
}

func (s *stubStore) RemoveFriend(_ context.Context, userID, friendID int) error {
	delete(s.friends, friendKey(userID, friendID))
	return nil
}

func (s *stubStore) IsFriend(_ context.Context, userID, friendID int) (bool, error) {
	_, ok := s.friends[friendKey(userID, friendID)]
	return ok, nil
}

func (s *stubStore) ListFriends(_ context.Context, userID int, opts store.ListOptions) ([]store.Friend, error) {
	var out []store.Friend
	for key, addedAt := range s.friends {
		var uid, fid int
		fmt.Sscanf(key, "%d:%d", &uid, &fid)
		if uid != userID {
			continue
		}
		friend, err := s.GetUserByID(context.Background(), fid)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Friend{Login: friend.Login, AddedAt: addedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (s *stubStore) CreatePost(_ context.Context, post *domain.Post) error {
	clone := *post
	s.posts[post.ID] = &clone
	return nil
}

func (s *stubStore) GetPost(_ context.Context, id string) (*domain.Post, error) {
	if p, ok := s.posts[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, store.NewStoreError("GetPost", "post", id, "post not found", store.ErrNotFound)
}

func (s *stubStore) ListPostsByAuthor(_ context.Context, authorID int, opts store.ListOptions) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Offset < len(out) {
		out = out[opts.Offset:]
	} else {
		out = nil
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *stubStore) GetReaction(_ context.Context, userID int, postID string) (*domain.Reaction, error) {
	key := friendKey(userID, 0) + postID
	if t, ok := s.reactions[key]; ok {
		return &domain.Reaction{UserID: userID, PostID: postID, Type: t}, nil
	}
	return nil, store.NewStoreError("GetReaction", "reaction", postID, "reaction not found", store.ErrNotFound)
}

func (s *stubStore) UpsertReaction(_ context.Context, reaction *domain.Reaction) error {
	key := friendKey(reaction.UserID, 0) + reaction.PostID
	s.reactions[key] = reaction.Type
	return nil
}

func (s *stubStore) AdjustPostCounters(_ context.Context, postID string, likesDelta, dislikesDelta int) error {
	p, ok := s.posts[postID]
	if !ok {
		return store.NewStoreError("AdjustPostCounters", "post", postID, "post not found", store.ErrNotFound)
	}
	p.LikesCount += likesDelta
	p.DislikesCount += dislikesDelta
	return nil
}

func (s *stubStore) WithTx(_ context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *stubStore) Close() error { return nil }

// =============================================================================
// Test Setup
// =============================================================================

func newTestHandler(t *testing.T) (http.Handler, *stubStore, *identity.TokenIssuer) {
	t.Helper()

	issuer, err := identity.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	s := newStubStore()
	h := NewHandler(s, issuer, nil)
	return h.Routes(), s, issuer
}

// registerUser seeds a user directly in the stub store and returns an auth
// header value for them.
func registerUser(t *testing.T, s *stubStore, issuer *identity.TokenIssuer, login string, public bool) (*domain.User, string) {
	t.Helper()

	hash, err := identity.HashPassword("Str0ngPass")
	require.NoError(t, err)

	user := &domain.User{
		Login:        login,
		Email:        login + "@example.com",
		PasswordHash: hash,
		CountryCode:  "RU",
		IsPublic:     public,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	token, err := issuer.Mint(login)
	require.NoError(t, err)
	return user, "Bearer " + token
}

func doRequest(t *testing.T, router http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// =============================================================================
// Ping and Country Tests
// =============================================================================

func TestPing(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListCountries(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodGet, "/api/countries", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	countries := decodeBody[[]CountryResponse](t, rec)
	require.Len(t, countries, 3)
	assert.Equal(t, "GB", countries[0].Alpha2, "ordered by alpha2")
}

func TestListCountries_RegionFilter(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodGet, "/api/countries?region=Asia", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	countries := decodeBody[[]CountryResponse](t, rec)
	require.Len(t, countries, 1)
	assert.Equal(t, "JP", countries[0].Alpha2)

	rec = doRequest(t, router, http.MethodGet, "/api/countries?region=Atlantis", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCountry(t *testing.T) {
	router, _, _ := newTestHandler(t)

	// Lower case is accepted and upper-cased.
	rec := doRequest(t, router, http.MethodGet, "/api/countries/ru", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	country := decodeBody[CountryResponse](t, rec)
	assert.Equal(t, "RUS", country.Alpha3)

	rec = doRequest(t, router, http.MethodGet, "/api/countries/XX", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "XX")

	rec = doRequest(t, router, http.MethodGet, "/api/countries/RUS", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Register and Sign-In Tests
// =============================================================================

func validRegisterBody() map[string]any {
	return map[string]any{
		"login":       "yellowMonkey",
		"email":       "yellowstone1980@you.ru",
		"password":    "$aba4821FWfew01",
		"countryCode": "RU",
		"isPublic":    true,
	}
}

func TestRegister_OK(t *testing.T) {
	router, s, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/register", "", validRegisterBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[RegisterResponse](t, rec)
	assert.Equal(t, "yellowMonkey", resp.Profile.Login)
	assert.Equal(t, "RU", resp.Profile.CountryCode)

	// Password is stored hashed.
	u, err := s.GetUserByLogin(context.Background(), "yellowMonkey")
	require.NoError(t, err)
	assert.NotEqual(t, "$aba4821FWfew01", u.PasswordHash)
	assert.NoError(t, identity.VerifyPassword("$aba4821FWfew01", u.PasswordHash))
}

func TestRegister_InvalidField(t *testing.T) {
	router, _, _ := newTestHandler(t)

	body := validRegisterBody()
	body["password"] = "weak"

	rec := doRequest(t, router, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestRegister_DuplicateLogin(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/register", "", validRegisterBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := validRegisterBody()
	body["email"] = "other@you.ru"
	rec = doRequest(t, router, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_UnknownCountry(t *testing.T) {
	router, _, _ := newTestHandler(t)

	body := validRegisterBody()
	body["countryCode"] = "ZZ"
	rec := doRequest(t, router, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "country")
}

func TestSignIn(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	registerUser(t, s, issuer, "yellowMonkey", false)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"login":    "yellowMonkey",
		"password": "Str0ngPass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[TokenResponse](t, rec)

	login, err := issuer.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "yellowMonkey", login)
}

func TestSignIn_BadCredentials(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	registerUser(t, s, issuer, "yellowMonkey", false)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"login":    "yellowMonkey",
		"password": "wrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/auth/sign-in", "", map[string]string{
		"login":    "nobody",
		"password": "Str0ngPass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Profile Tests
// =============================================================================

func TestMyProfile_RequiresAuth(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rec := doRequest(t, router, http.MethodGet, "/api/me/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyProfile(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "yellowMonkey", false)

	rec := doRequest(t, router, http.MethodGet, "/api/me/profile", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody[ProfileResponse](t, rec)
	assert.Equal(t, "yellowMonkey", profile.Login)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestGetProfile_AccessRules(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	viewer, auth := registerUser(t, s, issuer, "viewer", false)
	registerUser(t, s, issuer, "publicOwner", true)
	privateOwner, _ := registerUser(t, s, issuer, "privateOwner", false)

	// Own profile.
	rec := doRequest(t, router, http.MethodGet, "/api/profiles/viewer", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Public profile.
	rec = doRequest(t, router, http.MethodGet, "/api/profiles/publicOwner", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Private, not a friend.
	rec = doRequest(t, router, http.MethodGet, "/api/profiles/privateOwner", auth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Private, owner added viewer as friend.
	require.NoError(t, s.AddFriend(context.Background(), privateOwner.ID, viewer.ID))
	rec = doRequest(t, router, http.MethodGet, "/api/profiles/privateOwner", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Unknown logins answer the same 403 as private ones.
	rec = doRequest(t, router, http.MethodGet, "/api/profiles/ghost", auth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "yellowMonkey", false)

	rec := doRequest(t, router, http.MethodPatch, "/api/me/profile", auth, map[string]any{
		"isPublic":    true,
		"countryCode": "gb",
		"phone":       "+74951239922",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decodeBody[ProfileResponse](t, rec)
	assert.True(t, profile.IsPublic)
	assert.Equal(t, "GB", profile.CountryCode)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, "+74951239922", *profile.Phone)
}

func TestUpdateProfile_PhoneConflict(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "first", false)
	_, otherAuth := registerUser(t, s, issuer, "second", false)

	rec := doRequest(t, router, http.MethodPatch, "/api/me/profile", auth, map[string]any{
		"phone": "+74951239922",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, "/api/me/profile", otherAuth, map[string]any{
		"phone": "+74951239922",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateProfile_UnknownCountry(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "yellowMonkey", false)

	rec := doRequest(t, router, http.MethodPatch, "/api/me/profile", auth, map[string]any{
		"countryCode": "ZZ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePassword(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "yellowMonkey", false)

	// Wrong old password.
	rec := doRequest(t, router, http.MethodPost, "/api/me/updatePassword", auth, map[string]string{
		"oldPassword": "wrongPass1",
		"newPassword": "N3wStrongPass",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct old password.
	rec = doRequest(t, router, http.MethodPost, "/api/me/updatePassword", auth, map[string]string{
		"oldPassword": "Str0ngPass",
		"newPassword": "N3wStrongPass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := s.GetUserByLogin(context.Background(), "yellowMonkey")
	require.NoError(t, err)
	assert.NoError(t, identity.VerifyPassword("N3wStrongPass", u.PasswordHash))
}

// =============================================================================
// Friend Tests
// =============================================================================

func TestFriends_AddListRemove(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "alice", false)
	registerUser(t, s, issuer, "bob", false)

	rec := doRequest(t, router, http.MethodPost, "/api/friends/add", auth, map[string]string{"login": "bob"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Re-add is a no-op.
	rec = doRequest(t, router, http.MethodPost, "/api/friends/add", auth, map[string]string{"login": "bob"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Self-add is a no-op.
	rec = doRequest(t, router, http.MethodPost, "/api/friends/add", auth, map[string]string{"login": "alice"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Unknown login is a 404.
	rec = doRequest(t, router, http.MethodPost, "/api/friends/add", auth, map[string]string{"login": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/friends", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	friends := decodeBody[[]FriendResponse](t, rec)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Login)

	// Remove always answers 200, even for unknown logins.
	rec = doRequest(t, router, http.MethodPost, "/api/friends/remove", auth, map[string]string{"login": "bob"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodPost, "/api/friends/remove", auth, map[string]string{"login": "ghost"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/friends", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	friends = decodeBody[[]FriendResponse](t, rec)
	assert.Empty(t, friends)
}

// =============================================================================
// Post Tests
// =============================================================================

func TestPosts_NewAndGet(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "author", true)

	rec := doRequest(t, router, http.MethodPost, "/api/posts/new", auth, map[string]any{
		"content": "hello world",
		"tags":    []string{"greetings"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	post := decodeBody[PostResponse](t, rec)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "author", post.Author)
	assert.Equal(t, []string{"greetings"}, post.Tags)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/"+post.ID, auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/no-such-post", auth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPosts_InvalidBodies(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, auth := registerUser(t, s, issuer, "author", true)

	rec := doRequest(t, router, http.MethodPost, "/api/posts/new", auth, map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Content is capped at 1000 characters.
	rec = doRequest(t, router, http.MethodPost, "/api/posts/new", auth, map[string]any{
		"content": strings.Repeat("a", 1001),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/posts/new", auth, map[string]any{
		"content": strings.Repeat("a", 1000),
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Tags are capped at 20 characters each.
	rec = doRequest(t, router, http.MethodPost, "/api/posts/new", auth, map[string]any{
		"content": "tagged",
		"tags":    []string{strings.Repeat("t", 21)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPosts_PrivateAuthorHidden(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, authorAuth := registerUser(t, s, issuer, "hermit", false)
	_, viewerAuth := registerUser(t, s, issuer, "viewer", false)

	rec := doRequest(t, router, http.MethodPost, "/api/posts/new", authorAuth, map[string]any{"content": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	post := decodeBody[PostResponse](t, rec)

	// Hidden posts answer 404, not 403.
	rec = doRequest(t, router, http.MethodGet, "/api/posts/"+post.ID, viewerAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The author still sees it.
	rec = doRequest(t, router, http.MethodGet, "/api/posts/"+post.ID, authorAuth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeed(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, authorAuth := registerUser(t, s, issuer, "author", true)
	_, viewerAuth := registerUser(t, s, issuer, "viewer", false)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, router, http.MethodPost, "/api/posts/new", authorAuth, map[string]any{
			"content": fmt.Sprintf("post %d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/posts/feed/my", authorAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decodeBody[[]PostResponse](t, rec)
	assert.Len(t, posts, 3)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/feed/author?limit=2", viewerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts = decodeBody[[]PostResponse](t, rec)
	assert.Len(t, posts, 2)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/feed/ghost", viewerAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeed_PrivateAuthor(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	hermit, hermitAuth := registerUser(t, s, issuer, "hermit", false)
	viewer, viewerAuth := registerUser(t, s, issuer, "viewer", false)

	// A private author's feed is a 404 to strangers, same as an unknown
	// login, so the two cases cannot be told apart.
	rec := doRequest(t, router, http.MethodGet, "/api/posts/feed/hermit", viewerAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/feed/nobody", viewerAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Friends and the author still see it.
	require.NoError(t, s.AddFriend(context.Background(), hermit.ID, viewer.ID))
	rec = doRequest(t, router, http.MethodGet, "/api/posts/feed/hermit", viewerAuth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/posts/feed/hermit", hermitAuth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// Reaction Tests
// =============================================================================

func TestReactions_LikeDislikeSwitch(t *testing.T) {
	router, s, issuer := newTestHandler(t)
	_, authorAuth := registerUser(t, s, issuer, "author", true)
	_, readerAuth := registerUser(t, s, issuer, "reader", false)

	rec := doRequest(t, router, http.MethodPost, "/api/posts/new", authorAuth, map[string]any{"content": "react"})
	require.Equal(t, http.StatusOK, rec.Code)
	post := decodeBody[PostResponse](t, rec)

	// Like.
	rec = doRequest(t, router, http.MethodPost, "/api/posts/"+post.ID+"/like", readerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[PostResponse](t, rec)
	assert.Equal(t, 1, updated.LikesCount)
	assert.Equal(t, 0, updated.DislikesCount)

	// Repeat like is a no-op.
	rec = doRequest(t, router, http.MethodPost, "/api/posts/"+post.ID+"/like", readerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decodeBody[PostResponse](t, rec)
	assert.Equal(t, 1, updated.LikesCount)

	// Switching moves the counter.
	rec = doRequest(t, router, http.MethodPost, "/api/posts/"+post.ID+"/dislike", readerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decodeBody[PostResponse](t, rec)
	assert.Equal(t, 0, updated.LikesCount)
	assert.Equal(t, 1, updated.DislikesCount)
}
