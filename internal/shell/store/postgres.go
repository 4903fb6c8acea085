package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// PostgresStore
// =============================================================================

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgreSQL store and runs migrations.
// dsn is a postgres:// connection URI.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, NewStoreError("NewPostgresStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewPostgresStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewPostgresStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &PostgresStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Country Operations
// =============================================================================

func (s *PostgresStore) ListCountries(ctx context.Context, region domain.Region) ([]domain.Country, error) {
	return listCountries(ctx, s.db, region)
}

func (s *PostgresStore) GetCountryByAlpha2(ctx context.Context, alpha2 string) (*domain.Country, error) {
	return getCountryByAlpha2(ctx, s.db, alpha2)
}

// =============================================================================
// User Operations
// =============================================================================

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	return getUserByID(ctx, s.db, id)
}

func (s *PostgresStore) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return getUserByLogin(ctx, s.db, login)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.db, user)
}

// =============================================================================
// Friendship Operations
// =============================================================================

func (s *PostgresStore) AddFriend(ctx context.Context, userID, friendID int) error {
	return addFriend(ctx, s.db, userID, friendID)
}

func (s *PostgresStore) RemoveFriend(ctx context.Context, userID, friendID int) error {
	return removeFriend(ctx, s.db, userID, friendID)
}

func (s *PostgresStore) IsFriend(ctx context.Context, userID, friendID int) (bool, error) {
	return isFriend(ctx, s.db, userID, friendID)
}

func (s *PostgresStore) ListFriends(ctx context.Context, userID int, opts ListOptions) ([]Friend, error) {
	return listFriends(ctx, s.db, userID, opts)
}

// =============================================================================
// Post Operations
// =============================================================================

func (s *PostgresStore) CreatePost(ctx context.Context, post *domain.Post) error {
	return createPost(ctx, s.db, post)
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return getPost(ctx, s.db, id)
}

func (s *PostgresStore) ListPostsByAuthor(ctx context.Context, authorID int, opts ListOptions) ([]domain.Post, error) {
	return listPostsByAuthor(ctx, s.db, authorID, opts)
}

// =============================================================================
// Reaction Operations
// =============================================================================

func (s *PostgresStore) GetReaction(ctx context.Context, userID int, postID string) (*domain.Reaction, error) {
	return getReaction(ctx, s.db, userID, postID)
}

func (s *PostgresStore) UpsertReaction(ctx context.Context, reaction *domain.Reaction) error {
	return upsertReaction(ctx, s.db, reaction)
}

func (s *PostgresStore) AdjustPostCounters(ctx context.Context, postID string, likesDelta, dislikesDelta int) error {
	return adjustPostCounters(ctx, s.db, postID, likesDelta, dislikesDelta)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txPostgresStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txPostgresStore implements Store within a transaction.
type txPostgresStore struct {
	tx *sqlx.Tx
}

func (s *txPostgresStore) ListCountries(ctx context.Context, region domain.Region) ([]domain.Country, error) {
	return listCountries(ctx, s.tx, region)
}

func (s *txPostgresStore) GetCountryByAlpha2(ctx context.Context, alpha2 string) (*domain.Country, error) {
	return getCountryByAlpha2(ctx, s.tx, alpha2)
}

func (s *txPostgresStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txPostgresStore) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	return getUserByID(ctx, s.tx, id)
}

func (s *txPostgresStore) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return getUserByLogin(ctx, s.tx, login)
}

func (s *txPostgresStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.tx, user)
}

func (s *txPostgresStore) AddFriend(ctx context.Context, userID, friendID int) error {
	return addFriend(ctx, s.tx, userID, friendID)
}

func (s *txPostgresStore) RemoveFriend(ctx context.Context, userID, friendID int) error {
	return removeFriend(ctx, s.tx, userID, friendID)
}

func (s *txPostgresStore) IsFriend(ctx context.Context, userID, friendID int) (bool, error) {
	return isFriend(ctx, s.tx, userID, friendID)
}

func (s *txPostgresStore) ListFriends(ctx context.Context, userID int, opts ListOptions) ([]Friend, error) {
	return listFriends(ctx, s.tx, userID, opts)
}

func (s *txPostgresStore) CreatePost(ctx context.Context, post *domain.Post) error {
	return createPost(ctx, s.tx, post)
}

func (s *txPostgresStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return getPost(ctx, s.tx, id)
}

func (s *txPostgresStore) ListPostsByAuthor(ctx context.Context, authorID int, opts ListOptions) ([]domain.Post, error) {
	return listPostsByAuthor(ctx, s.tx, authorID, opts)
}

func (s *txPostgresStore) GetReaction(ctx context.Context, userID int, postID string) (*domain.Reaction, error) {
	return getReaction(ctx, s.tx, userID, postID)
}

func (s *txPostgresStore) UpsertReaction(ctx context.Context, reaction *domain.Reaction) error {
	return upsertReaction(ctx, s.tx, reaction)
}

func (s *txPostgresStore) AdjustPostCounters(ctx context.Context, postID string, likesDelta, dislikesDelta int) error {
	return adjustPostCounters(ctx, s.tx, postID, likesDelta, dislikesDelta)
}

// Nested transactions are not supported; the callback runs on the same tx.
func (s *txPostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *txPostgresStore) Close() error {
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

func listCountries(ctx context.Context, exec executor, region domain.Region) ([]domain.Country, error) {
	var countries []domain.Country
	var err error

	if region == "" {
		query := `SELECT * FROM countries ORDER BY alpha2`
		err = exec.SelectContext(ctx, &countries, query)
	} else {
		query := `SELECT * FROM countries WHERE region = $1 ORDER BY alpha2`
		err = exec.SelectContext(ctx, &countries, query, string(region))
	}
	if err != nil {
		return nil, NewStoreError("ListCountries", "country", "", err.Error(), err)
	}

	return countries, nil
}

func getCountryByAlpha2(ctx context.Context, exec executor, alpha2 string) (*domain.Country, error) {
	query := `SELECT * FROM countries WHERE alpha2 = $1`

	var country domain.Country
	err := exec.GetContext(ctx, &country, query, alpha2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetCountryByAlpha2", "country", alpha2, "country not found", ErrNotFound)
		}
		return nil, NewStoreError("GetCountryByAlpha2", "country", alpha2, err.Error(), err)
	}

	return &country, nil
}

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		INSERT INTO users (login, email, password, country_code, is_public, phone, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int
	err := exec.GetContext(ctx, &id, query,
		user.Login, user.Email, user.PasswordHash, user.CountryCode,
		user.IsPublic, user.Phone, user.Image,
	)
	if err != nil {
		if dupErr := mapUserConstraintError(err); dupErr != nil {
			return NewStoreError("CreateUser", "user", user.Login, dupErr.Error(), dupErr)
		}
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return NewStoreError("CreateUser", "user", user.Login, "unknown country code", ErrForeignKey)
		}
		return NewStoreError("CreateUser", "user", user.Login, err.Error(), err)
	}

	user.ID = id
	return nil
}

func getUserByID(ctx context.Context, exec executor, id int) (*domain.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user domain.User
	err := exec.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByID", "user", strconv.Itoa(id), "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByID", "user", strconv.Itoa(id), err.Error(), err)
	}

	return &user, nil
}

func getUserByLogin(ctx context.Context, exec executor, login string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE login = $1`

	var user domain.User
	err := exec.GetContext(ctx, &user, query, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByLogin", "user", login, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByLogin", "user", login, err.Error(), err)
	}

	return &user, nil
}

func updateUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		UPDATE users SET
			email = $2,
			password = $3,
			country_code = $4,
			is_public = $5,
			phone = $6,
			image = $7
		WHERE id = $1`

	result, err := exec.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.CountryCode,
		user.IsPublic, user.Phone, user.Image,
	)
	if err != nil {
		if dupErr := mapUserConstraintError(err); dupErr != nil {
			return NewStoreError("UpdateUser", "user", user.Login, dupErr.Error(), dupErr)
		}
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return NewStoreError("UpdateUser", "user", user.Login, "unknown country code", ErrForeignKey)
		}
		return NewStoreError("UpdateUser", "user", user.Login, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateUser", "user", user.Login, "user not found", ErrNotFound)
	}

	return nil
}

// mapUserConstraintError maps unique violations on the users table to the
// matching sentinel, or returns nil for other errors.
func mapUserConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users_login_key"):
		return ErrDuplicateLogin
	case strings.Contains(msg, "users_email_key"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "users_phone_key"):
		return ErrDuplicatePhone
	}
	return nil
}

func addFriend(ctx context.Context, exec executor, userID, friendID int) error {
	// Re-adding an existing friend is a no-op.
	query := `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, friend_id) DO NOTHING`

	_, err := exec.ExecContext(ctx, query, userID, friendID)
	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return NewStoreError("AddFriend", "friendship", "", "user not found", ErrForeignKey)
		}
		return NewStoreError("AddFriend", "friendship", "", err.Error(), err)
	}

	return nil
}

func removeFriend(ctx context.Context, exec executor, userID, friendID int) error {
	// Removing a non-friend is a no-op.
	query := `DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`

	_, err := exec.ExecContext(ctx, query, userID, friendID)
	if err != nil {
		return NewStoreError("RemoveFriend", "friendship", "", err.Error(), err)
	}

	return nil
}

func isFriend(ctx context.Context, exec executor, userID, friendID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`

	var exists bool
	err := exec.GetContext(ctx, &exists, query, userID, friendID)
	if err != nil {
		return false, NewStoreError("IsFriend", "friendship", "", err.Error(), err)
	}

	return exists, nil
}

func listFriends(ctx context.Context, exec executor, userID int, opts ListOptions) ([]Friend, error) {
	opts = opts.Normalize()
	query := `
		SELECT u.login AS login, f.added_at AS added_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY f.added_at DESC, u.login
		LIMIT $2 OFFSET $3`

	var friends []Friend
	err := exec.SelectContext(ctx, &friends, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListFriends", "friendship", "", err.Error(), err)
	}

	return friends, nil
}

// postRow represents a post row in the database. Tags are stored as a JSON
// text column.
type postRow struct {
	ID            string    `db:"id"`
	Content       string    `db:"content"`
	AuthorID      int       `db:"author"`
	Tags          string    `db:"tags"`
	CreatedAt     time.Time `db:"created_at"`
	LikesCount    int       `db:"likes_count"`
	DislikesCount int       `db:"dislikes_count"`
}

// rowToPost converts a database row to a domain post.
func rowToPost(row *postRow) (*domain.Post, error) {
	post := &domain.Post{
		ID:            row.ID,
		Content:       row.Content,
		AuthorID:      row.AuthorID,
		CreatedAt:     row.CreatedAt,
		LikesCount:    row.LikesCount,
		DislikesCount: row.DislikesCount,
	}
	if err := json.Unmarshal([]byte(row.Tags), &post.Tags); err != nil {
		return nil, NewStoreError("rowToPost", "post", row.ID, "failed to deserialize tags", ErrInvalidData)
	}
	return post, nil
}

func createPost(ctx context.Context, exec executor, post *domain.Post) error {
	tagsJSON, err := json.Marshal(post.Tags)
	if err != nil {
		return NewStoreError("CreatePost", "post", post.ID, "failed to serialize tags", ErrInvalidData)
	}

	query := `
		INSERT INTO posts (id, content, author, tags, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = exec.ExecContext(ctx, query, post.ID, post.Content, post.AuthorID, string(tagsJSON), post.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return NewStoreError("CreatePost", "post", post.ID, "author not found", ErrForeignKey)
		}
		return NewStoreError("CreatePost", "post", post.ID, err.Error(), err)
	}

	return nil
}

func getPost(ctx context.Context, exec executor, id string) (*domain.Post, error) {
	query := `SELECT * FROM posts WHERE id = $1`

	var row postRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetPost", "post", id, "post not found", ErrNotFound)
		}
		return nil, NewStoreError("GetPost", "post", id, err.Error(), err)
	}

	return rowToPost(&row)
}

func listPostsByAuthor(ctx context.Context, exec executor, authorID int, opts ListOptions) ([]domain.Post, error) {
	opts = opts.Normalize()
	query := `
		SELECT * FROM posts
		WHERE author = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	var rows []postRow
	err := exec.SelectContext(ctx, &rows, query, authorID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListPostsByAuthor", "post", "", err.Error(), err)
	}

	posts := make([]domain.Post, 0, len(rows))
	for i := range rows {
		p, err := rowToPost(&rows[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	return posts, nil
}

func getReaction(ctx context.Context, exec executor, userID int, postID string) (*domain.Reaction, error) {
	query := `SELECT * FROM reactions WHERE user_id = $1 AND post_id = $2`

	var reaction domain.Reaction
	err := exec.GetContext(ctx, &reaction, query, userID, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetReaction", "reaction", postID, "reaction not found", ErrNotFound)
		}
		return nil, NewStoreError("GetReaction", "reaction", postID, err.Error(), err)
	}

	return &reaction, nil
}

func upsertReaction(ctx context.Context, exec executor, reaction *domain.Reaction) error {
	query := `
		INSERT INTO reactions (user_id, post_id, reaction_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type`

	_, err := exec.ExecContext(ctx, query, reaction.UserID, reaction.PostID, string(reaction.Type))
	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return NewStoreError("UpsertReaction", "reaction", reaction.PostID, "post not found", ErrForeignKey)
		}
		return NewStoreError("UpsertReaction", "reaction", reaction.PostID, err.Error(), err)
	}

	return nil
}

func adjustPostCounters(ctx context.Context, exec executor, postID string, likesDelta, dislikesDelta int) error {
	query := `
		UPDATE posts SET
			likes_count = likes_count + $2,
			dislikes_count = dislikes_count + $3
		WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, postID, likesDelta, dislikesDelta)
	if err != nil {
		return NewStoreError("AdjustPostCounters", "post", postID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("AdjustPostCounters", "post", postID, "post not found", ErrNotFound)
	}

	return nil
}
