// Package service turns storage rows into feed views: posts with their comment
// trees, likes, and the author leaderboard.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ButyrinIA/socialfeed/internal/feed"
	"github.com/ButyrinIA/socialfeed/internal/loader"
	"github.com/ButyrinIA/socialfeed/internal/metrics"
	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	MaxContentLength = 2000
	DefaultPageSize  = 10
	MaxPageSize      = 100
)

var tracer = otel.Tracer("github.com/ButyrinIA/socialfeed/internal/service")

// Publisher receives every comment right after it is stored.
type Publisher interface {
	Publish(postID string, comment CommentView)
}

type Feed struct {
	store     storage.Storage
	publisher Publisher
	opts      feed.LeaderboardOptions
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(store storage.Storage, publisher Publisher, opts feed.LeaderboardOptions, logger *slog.Logger, m *metrics.Metrics) (*Feed, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Feed{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Login returns the user with the given name, creating it on first use.
func (f *Feed) Login(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	user, err := f.store.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = &models.User{ID: uuid.New().String(), Username: username, CreatedAt: f.now().UTC()}
	err = f.store.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrUsernameTaken) {
		// Lost a race with a concurrent first login.
		return f.store.GetUserByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}
	f.logger.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

func (f *Feed) ListPosts(ctx context.Context, limit int, cursor *string) (*PostPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if cursor != nil {
		if _, err := storage.DecodePostCursor(*cursor); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	page, err := f.store.ListPosts(ctx, limit, cursor)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(page.Posts))
	for i, p := range page.Posts {
		ids[i] = p.AuthorID
	}
	names := loader.Usernames(ctx, f.authors(ctx), ids)

	result := &PostPage{
		Posts:      make([]PostView, len(page.Posts)),
		TotalCount: page.TotalCount,
		NextCursor: page.NextCursor,
	}
	for i, p := range page.Posts {
		result.Posts[i] = newPostView(p, names)
	}
	return result, nil
}

func (f *Feed) CreatePost(ctx context.Context, authorID, content string, allowComments bool) (*PostView, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:            uuid.New().String(),
		AuthorID:      authorID,
		Content:       content,
		AllowComments: allowComments,
		CreatedAt:     f.now().UTC(),
	}
	if err := f.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	names := loader.Usernames(ctx, f.authors(ctx), []string{authorID})
	view := newPostView(*post, names)
	return &view, nil
}

// PostDetail returns a post with its whole comment tree. Comments whose parent
// chain is broken are left out and counted.
func (f *Feed) PostDetail(ctx context.Context, postID string) (*PostDetail, error) {
	ctx, span := tracer.Start(ctx, "Feed.PostDetail", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	post, err := f.store.GetPost(ctx, postID)
	if err != nil {
		return nil, spanError(span, err)
	}
	comments, err := f.store.ListComments(ctx, postID)
	if err != nil {
		return nil, spanError(span, err)
	}

	forest := feed.BuildCommentTree(comments)
	if dropped := len(comments) - feed.CountNodes(forest); dropped > 0 {
		f.logger.Warn("comments dropped from tree", "post_id", postID, "dropped", dropped)
		f.metrics.CommentsDroppedTotal.Add(float64(dropped))
	}
	span.SetAttributes(attribute.Int("comments.count", len(comments)))

	ids := make([]string, 0, len(comments)+1)
	ids = append(ids, post.AuthorID)
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	names := loader.Usernames(ctx, f.authors(ctx), ids)

	return &PostDetail{
		PostView: newPostView(*post, names),
		Comments: commentViews(forest, names),
	}, nil
}

// CreateComment stores a reply to postID, or to parentID when set, and
// publishes it to the post's streams. Posts created with comments off reject it.
func (f *Feed) CreateComment(ctx context.Context, authorID, postID string, parentID *string, content string) (*CommentView, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	post, err := f.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.AllowComments {
		return nil, fmt.Errorf("post %s: %w", postID, ErrCommentsDisabled)
	}
	if parentID != nil {
		parent, err := f.store.GetComment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: parent comment %s belongs to another post", ErrInvalidInput, *parentID)
		}
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		ParentID:  parentID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: f.now().UTC(),
	}
	if err := f.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	names := loader.Usernames(ctx, f.authors(ctx), []string{authorID})
	view := newCommentView(*comment, names)
	if f.publisher != nil {
		f.publisher.Publish(postID, *view)
	}
	return view, nil
}

func (f *Feed) LikePost(ctx context.Context, userID, postID string) error {
	return f.like(ctx, &models.Like{UserID: userID, PostID: &postID}, "post")
}

func (f *Feed) LikeComment(ctx context.Context, userID, commentID string) error {
	return f.like(ctx, &models.Like{UserID: userID, CommentID: &commentID}, "comment")
}

func (f *Feed) like(ctx context.Context, like *models.Like, target string) error {
	like.ID = uuid.New().String()
	like.CreatedAt = f.now().UTC()
	if err := f.store.CreateLike(ctx, like); err != nil {
		return err
	}
	f.metrics.LikesTotal.WithLabelValues(target).Inc()
	return nil
}

// Leaderboard ranks authors by the likes their posts and comments received in
// the window ending at now.
func (f *Feed) Leaderboard(ctx context.Context, now time.Time) ([]LeaderboardRow, error) {
	ctx, span := tracer.Start(ctx, "Feed.Leaderboard")
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.LeaderboardDuration.Observe(time.Since(start).Seconds()) }()

	since := now.Add(-time.Duration(f.opts.WindowHours) * time.Hour)

	var postLikes, commentLikes []models.Like
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		postLikes, err = f.store.ListPostLikesSince(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		commentLikes, err = f.store.ListCommentLikesSince(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, spanError(span, fmt.Errorf("failed to fetch likes: %w", err))
	}

	likes := make([]models.Like, 0, len(postLikes)+len(commentLikes))
	likes = append(likes, postLikes...)
	likes = append(likes, commentLikes...)
	span.SetAttributes(attribute.Int("likes.count", len(likes)))

	board, err := feed.ComputeLeaderboard(likes, now, f.opts)
	if err != nil {
		return nil, spanError(span, err)
	}
	for _, skipped := range board.Skipped {
		f.logger.Warn("like skipped", "error", skipped)
	}
	f.metrics.LikesSkippedTotal.Add(float64(len(board.Skipped)))

	ids := make([]string, len(board.Entries))
	for i, e := range board.Entries {
		ids[i] = e.UserID
	}
	names := loader.Usernames(ctx, f.authors(ctx), ids)

	rows := make([]LeaderboardRow, len(board.Entries))
	for i, e := range board.Entries {
		rows[i] = LeaderboardRow{UserID: e.UserID, Username: names[e.UserID], Score: e.Score}
	}
	return rows, nil
}

// authors returns the request-scoped loader, or a fresh one outside HTTP.
func (f *Feed) authors(ctx context.Context) *loader.AuthorLoader {
	if l, ok := loader.AuthorLoaderFrom(ctx); ok {
		return l
	}
	return loader.NewAuthorLoader(f.store)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, MaxContentLength)
	}
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
