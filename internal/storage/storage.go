package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyLiked  = errors.New("already liked")
	ErrUsernameTaken = errors.New("username already taken")
)

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUsers returns the users found among ids keyed by id; missing ids are absent.
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns every comment of a post ordered by creation time.
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)

	// CreateLike returns ErrAlreadyLiked when the user already liked the target.
	CreateLike(ctx context.Context, like *models.Like) error
	// ListPostLikesSince and ListCommentLikesSince return likes created at or
	// after since, with TargetAuthorID joined from the liked entity.
	ListPostLikesSince(ctx context.Context, since time.Time) ([]models.Like, error)
	ListCommentLikesSince(ctx context.Context, since time.Time) ([]models.Like, error)

	Close() error
}
