package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// RegisterRequest is the request body for registering a profile.
type RegisterRequest struct {
	Login       string `json:"login" validate:"required,user_login"`
	Email       string `json:"email" validate:"required,user_email"`
	Password    string `json:"password" validate:"required,user_password"`
	CountryCode string `json:"countryCode" validate:"required,country_alpha2"`
	IsPublic    bool   `json:"isPublic"`
	Phone       string `json:"phone" validate:"user_phone"`
	Image       string `json:"image" validate:"user_image"`
}

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for a partial profile update.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	CountryCode *string `json:"countryCode"`
	IsPublic    *bool   `json:"isPublic"`
	Phone       *string `json:"phone"`
	Image       *string `json:"image"`
}

// UpdatePasswordRequest is the request body for changing the password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" validate:"required,user_password"`
}

// FriendRequest is the request body for adding or removing a friend.
type FriendRequest struct {
	Login string `json:"login"`
}

// NewPostRequest is the request body for publishing a post.
type NewPostRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// =============================================================================
// Response Types
// =============================================================================

// ProfileResponse is a user profile as returned by the API. The password
// hash never leaves the store layer.
type ProfileResponse struct {
	Login       string  `json:"login"`
	Email       string  `json:"email"`
	CountryCode string  `json:"countryCode"`
	IsPublic    bool    `json:"isPublic"`
	Phone       *string `json:"phone,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// RegisterResponse wraps the created profile.
type RegisterResponse struct {
	Profile ProfileResponse `json:"profile"`
}

// TokenResponse carries the access token after sign-in.
type TokenResponse struct {
	Token string `json:"token"`
}

// CountryResponse is one ISO 3166 country record.
type CountryResponse struct {
	Name   string `json:"name"`
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
	Region string `json:"region"`
}

// FriendResponse is one entry of a friend list.
type FriendResponse struct {
	Login   string    `json:"login"`
	AddedAt time.Time `json:"addedAt"`
}

// PostResponse is a post with its reaction counters.
type PostResponse struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
	LikesCount    int       `json:"likesCount"`
	DislikesCount int       `json:"dislikesCount"`
}

// StatusResponse is the generic acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Reason string `json:"reason"`
}
