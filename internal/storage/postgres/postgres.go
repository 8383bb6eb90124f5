package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New connects to an already migrated database; see Migrate.
func New(ctx context.Context, dsn string, maxConns int32) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, created_at)
		VALUES ($1, $2, $3)`,
		user.ID, user.Username, user.CreatedAt)
	if pgCode(err) == uniqueViolation {
		return storage.ErrUsernameTaken
	}
	return err
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, created_at
		FROM users
		WHERE username=$1`, username).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStorage) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, created_at
		FROM users
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]*models.User, len(ids))
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users[u.ID] = &u
	}
	return users, rows.Err()
}

func (s *PostgresStorage) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, author_id, content, allow_comments, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.AuthorID, post.Content, post.AllowComments, post.CreatedAt)
	return err
}

func (s *PostgresStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.pool.QueryRow(ctx, `
		SELECT id, author_id, content, allow_comments, created_at
		FROM posts
		WHERE id=$1`, id).Scan(&p.ID, &p.AuthorID, &p.Content, &p.AllowComments, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	var (
		beforeAt *time.Time
		beforeID string
	)
	if cursor != nil {
		c, err := storage.DecodePostCursor(*cursor)
		if err != nil {
			return nil, err
		}
		beforeAt, beforeID = &c.CreatedAt, c.ID
	}

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&totalCount); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, author_id, content, allow_comments, created_at
		FROM posts
		WHERE $1::TIMESTAMPTZ IS NULL
			OR created_at < $1
			OR (created_at = $1 AND id > $2)
		ORDER BY created_at DESC, id
		LIMIT $3`, beforeAt, beforeID, limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.Post, 0, limit)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.AllowComments, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		if limit > 0 {
			last := posts[limit-1]
			cursorVal := storage.PostCursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
			nextCursor = &cursorVal
		}
	}

	return &models.PaginatedPosts{
		Posts:      posts,
		TotalCount: totalCount,
		NextCursor: nextCursor,
	}, nil
}

func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, post_id, parent_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.PostID, comment.ParentID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if pgCode(err) == foreignKeyViolation {
		return fmt.Errorf("comment %s references a missing row: %w", comment.ID, storage.ErrNotFound)
	}
	return err
}

func (s *PostgresStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.pool.QueryRow(ctx, `
		SELECT id, post_id, parent_id, author_id, content, created_at
		FROM comments
		WHERE id=$1`, id).Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStorage) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, post_id, parent_id, author_id, content, created_at
		FROM comments
		WHERE post_id=$1
		ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresStorage) CreateLike(ctx context.Context, like *models.Like) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO likes (id, user_id, post_id, comment_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		like.ID, like.UserID, like.PostID, like.CommentID, like.CreatedAt)
	switch pgCode(err) {
	case uniqueViolation:
		return storage.ErrAlreadyLiked
	case foreignKeyViolation:
		return fmt.Errorf("like %s references a missing row: %w", like.ID, storage.ErrNotFound)
	}
	return err
}

// A target row deleted under the like leaves TargetAuthorID empty; the
// leaderboard reports such likes as malformed.
func (s *PostgresStorage) ListPostLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	return s.listLikes(ctx, `
		SELECT l.id, l.user_id, l.post_id, l.comment_id, l.created_at, COALESCE(p.author_id, '')
		FROM likes l
		LEFT JOIN posts p ON p.id = l.post_id
		WHERE l.post_id IS NOT NULL AND l.created_at >= $1`, since)
}

func (s *PostgresStorage) ListCommentLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	return s.listLikes(ctx, `
		SELECT l.id, l.user_id, l.post_id, l.comment_id, l.created_at, COALESCE(c.author_id, '')
		FROM likes l
		LEFT JOIN comments c ON c.id = l.comment_id
		WHERE l.comment_id IS NOT NULL AND l.created_at >= $1`, since)
}

func (s *PostgresStorage) listLikes(ctx context.Context, query string, since time.Time) ([]models.Like, error) {
	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.ID, &l.UserID, &l.PostID, &l.CommentID, &l.CreatedAt, &l.TargetAuthorID); err != nil {
			return nil, err
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
