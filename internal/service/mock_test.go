package service

import (
	"context"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockStorage) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).(map[string]*models.User)
	return users, args.Error(1)
}

func (m *mockStorage) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	args := m.Called(ctx, limit, cursor)
	page, _ := args.Get(0).(*models.PaginatedPosts)
	return page, args.Error(1)
}

func (m *mockStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockStorage) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *mockStorage) CreateLike(ctx context.Context, like *models.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *mockStorage) ListPostLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	args := m.Called(ctx, since)
	likes, _ := args.Get(0).([]models.Like)
	return likes, args.Error(1)
}

func (m *mockStorage) ListCommentLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	args := m.Called(ctx, since)
	likes, _ := args.Get(0).([]models.Like)
	return likes, args.Error(1)
}

func (m *mockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}
