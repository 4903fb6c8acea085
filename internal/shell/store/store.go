package store

import (
	"context"
	"time"

	"github.com/artpar/mingle/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for mingle entities.
type Store interface {
	// Country operations (reference data, read only)
	ListCountries(ctx context.Context, region domain.Region) ([]domain.Country, error)
	GetCountryByAlpha2(ctx context.Context, alpha2 string) (*domain.Country, error)

	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Friendship operations (directed: user -> friend)
	AddFriend(ctx context.Context, userID, friendID int) error
	RemoveFriend(ctx context.Context, userID, friendID int) error
	IsFriend(ctx context.Context, userID, friendID int) (bool, error)
	ListFriends(ctx context.Context, userID int, opts ListOptions) ([]Friend, error)

	// Post operations
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID int, opts ListOptions) ([]domain.Post, error)

	// Reaction operations
	GetReaction(ctx context.Context, userID int, postID string) (*domain.Reaction, error)
	UpsertReaction(ctx context.Context, reaction *domain.Reaction) error
	AdjustPostCounters(ctx context.Context, postID string, likesDelta, dislikesDelta int) error

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// Friend is one row of a user's friend list: the friend's login joined with
// when they were added.
type Friend struct {
	Login   string    `db:"login"`
	AddedAt time.Time `db:"added_at"`
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  5,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 5
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
