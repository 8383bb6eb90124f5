package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/ButyrinIA/socialfeed/internal/storage"
)

type likeKey struct {
	userID string
	target string
}

type MemoryStorage struct {
	users       map[string]*models.User
	usernames   map[string]string
	posts       map[string]*models.Post
	comments    map[string]*models.Comment
	postThreads map[string][]*models.Comment
	likes       []models.Like
	likeKeys    map[likeKey]struct{}
	mu          sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		users:       make(map[string]*models.User),
		usernames:   make(map[string]string),
		posts:       make(map[string]*models.Post),
		comments:    make(map[string]*models.Comment),
		postThreads: make(map[string][]*models.Comment),
		likeKeys:    make(map[likeKey]struct{}),
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[user.Username]; exists {
		return storage.ErrUsernameTaken
	}
	u := *user
	s.users[u.ID] = &u
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.usernames[username]
	if !exists {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	u := *s.users[id]
	return &u, nil
}

func (s *MemoryStorage) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, exists := s.users[id]; exists {
			copied := *u
			result[id] = &copied
		}
	}
	return result, nil
}

func (s *MemoryStorage) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *post
	s.posts[p.ID] = &p
	return nil
}

func (s *MemoryStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	p := *post
	return &p, nil
}

func (s *MemoryStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		posts = append(posts, *post)
	}

	// Newest first, id breaks ties so pages are stable.
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})

	totalCount := len(posts)

	startIdx := 0
	if cursor != nil {
		after, err := storage.DecodePostCursor(*cursor)
		if err != nil {
			return nil, err
		}
		startIdx = len(posts)
		for i, post := range posts {
			if after.After(post.CreatedAt, post.ID) {
				startIdx = i
				break
			}
		}
	}

	endIdx := startIdx + limit
	if endIdx > len(posts) {
		endIdx = len(posts)
	}

	result := posts[startIdx:endIdx]
	var nextCursor *string
	if endIdx < len(posts) && endIdx > startIdx {
		last := posts[endIdx-1]
		cursorVal := storage.PostCursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		nextCursor = &cursorVal
	}

	return &models.PaginatedPosts{
		Posts:      result,
		TotalCount: totalCount,
		NextCursor: nextCursor,
	}, nil
}

func (s *MemoryStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[comment.PostID]; !exists {
		return fmt.Errorf("post %s: %w", comment.PostID, storage.ErrNotFound)
	}
	c := *comment
	s.comments[c.ID] = &c
	s.postThreads[c.PostID] = append(s.postThreads[c.PostID], &c)
	return nil
}

func (s *MemoryStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.comments[id]
	if !exists {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	c := *comment
	return &c, nil
}

func (s *MemoryStorage) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.postThreads[postID]
	result := make([]models.Comment, len(thread))
	for i, c := range thread {
		result[i] = *c
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStorage) CreateLike(ctx context.Context, like *models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var key likeKey
	switch {
	case like.PostID != nil && like.CommentID == nil:
		if _, exists := s.posts[*like.PostID]; !exists {
			return fmt.Errorf("post %s: %w", *like.PostID, storage.ErrNotFound)
		}
		key = likeKey{userID: like.UserID, target: "post:" + *like.PostID}
	case like.CommentID != nil && like.PostID == nil:
		if _, exists := s.comments[*like.CommentID]; !exists {
			return fmt.Errorf("comment %s: %w", *like.CommentID, storage.ErrNotFound)
		}
		key = likeKey{userID: like.UserID, target: "comment:" + *like.CommentID}
	default:
		return fmt.Errorf("like %s must target exactly one of post or comment", like.ID)
	}

	if _, exists := s.likeKeys[key]; exists {
		return storage.ErrAlreadyLiked
	}
	s.likeKeys[key] = struct{}{}

	l := *like
	l.TargetAuthorID = ""
	s.likes = append(s.likes, l)
	return nil
}

func (s *MemoryStorage) ListPostLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Like
	for _, like := range s.likes {
		if like.PostID == nil || like.CreatedAt.Before(since) {
			continue
		}
		if post, exists := s.posts[*like.PostID]; exists {
			like.TargetAuthorID = post.AuthorID
		}
		result = append(result, like)
	}
	return result, nil
}

func (s *MemoryStorage) ListCommentLikesSince(ctx context.Context, since time.Time) ([]models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Like
	for _, like := range s.likes {
		if like.CommentID == nil || like.CreatedAt.Before(since) {
			continue
		}
		if comment, exists := s.comments[*like.CommentID]; exists {
			like.TargetAuthorID = comment.AuthorID
		}
		result = append(result, like)
	}
	return result, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
