// Package domain defines the entities the mingle service persists and serves.
package domain

import "time"

// =============================================================================
// Countries
// =============================================================================

// Region is a geographic region from the ISO 3166 dataset.
type Region string

const (
	RegionEurope   Region = "Europe"
	RegionAfrica   Region = "Africa"
	RegionAmericas Region = "Americas"
	RegionOceania  Region = "Oceania"
	RegionAsia     Region = "Asia"
)

// KnownRegions lists every region a country may belong to.
var KnownRegions = []Region{RegionEurope, RegionAfrica, RegionAmericas, RegionOceania, RegionAsia}

// ValidRegion reports whether r is one of the known regions.
func ValidRegion(r Region) bool {
	for _, known := range KnownRegions {
		if r == known {
			return true
		}
	}
	return false
}

// Country is an ISO 3166 country record. Countries are reference data seeded
// by migrations and never mutated through the API.
type Country struct {
	ID     int    `db:"id"`
	Name   string `db:"name"`
	Alpha2 string `db:"alpha2"`
	Alpha3 string `db:"alpha3"`
	Region Region `db:"region"`
}

// =============================================================================
// Users
// =============================================================================

// User is a registered profile. PasswordHash is the bcrypt hash, never the
// plain password.
type User struct {
	ID           int     `db:"id"`
	Login        string  `db:"login"`
	Email        string  `db:"email"`
	PasswordHash string  `db:"password"`
	CountryCode  string  `db:"country_code"`
	IsPublic     bool    `db:"is_public"`
	Phone        *string `db:"phone"`
	Image        *string `db:"image"`
}

// =============================================================================
// Friendships
// =============================================================================

// Friendship records that UserID added FriendID. The relation is directed:
// adding someone does not add you to their list.
type Friendship struct {
	ID       int       `db:"id"`
	UserID   int       `db:"user_id"`
	FriendID int       `db:"friend_id"`
	AddedAt  time.Time `db:"added_at"`
}

// =============================================================================
// Posts
// =============================================================================

// Post is a user publication. ID is a UUID string assigned at creation.
type Post struct {
	ID            string    `db:"id"`
	Content       string    `db:"content"`
	AuthorID      int       `db:"author"`
	Tags          []string  `db:"tags"`
	CreatedAt     time.Time `db:"created_at"`
	LikesCount    int       `db:"likes_count"`
	DislikesCount int       `db:"dislikes_count"`
}

// =============================================================================
// Reactions
// =============================================================================

// ReactionType is the kind of reaction a user left on a post.
type ReactionType string

const (
	ReactionNone    ReactionType = ""
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Reaction records a user's reaction to a post. Type is empty until the user
// actually reacts; the row exists to make the like/dislike switch atomic.
type Reaction struct {
	ID        int          `db:"id"`
	UserID    int          `db:"user_id"`
	PostID    string       `db:"post_id"`
	Type      ReactionType `db:"reaction_type"`
	CreatedAt time.Time    `db:"created_at"`
}
