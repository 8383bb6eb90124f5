package postgres

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:13",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "user",
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "feed",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = postgresC.Terminate(context.Background()) })

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)
	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return "postgres://user:password@" + host + ":" + port.Port() + "/feed?sslmode=disable"
}

func TestPostgresStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	require.NoError(t, Migrate(dsn, "migrations", "up"))

	store, err := New(ctx, dsn, 4)
	require.NoError(t, err)
	defer store.Close()

	newUser := func(name string) *models.User {
		u := &models.User{ID: uuid.New().String(), Username: name + "-" + uuid.New().String()[:8], CreatedAt: time.Now()}
		require.NoError(t, store.CreateUser(ctx, u))
		return u
	}
	newPost := func(author *models.User, createdAt time.Time) *models.Post {
		p := &models.Post{ID: uuid.New().String(), AuthorID: author.ID, Content: "post", AllowComments: true, CreatedAt: createdAt}
		require.NoError(t, store.CreatePost(ctx, p))
		return p
	}

	t.Run("users", func(t *testing.T) {
		u := newUser("alice")

		err := store.CreateUser(ctx, &models.User{ID: uuid.New().String(), Username: u.Username, CreatedAt: time.Now()})
		assert.ErrorIs(t, err, storage.ErrUsernameTaken)

		found, err := store.GetUserByUsername(ctx, u.Username)
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		_, err = store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		users, err := store.GetUsers(ctx, []string{u.ID, "missing"})
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, u.Username, users[u.ID].Username)
	})

	t.Run("CreatePost and GetPost", func(t *testing.T) {
		author := newUser("author")
		post := newPost(author, time.Now())

		retrieved, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, retrieved.ID)
		assert.Equal(t, author.ID, retrieved.AuthorID)
		assert.True(t, retrieved.AllowComments)

		closed := &models.Post{ID: uuid.New().String(), AuthorID: author.ID, Content: "closed", CreatedAt: time.Now()}
		require.NoError(t, store.CreatePost(ctx, closed))
		retrieved, err = store.GetPost(ctx, closed.ID)
		require.NoError(t, err)
		assert.False(t, retrieved.AllowComments)

		_, err = store.GetPost(ctx, "non-existent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListPosts pages newest first", func(t *testing.T) {
		author := newUser("pager")
		base := time.Now().Add(time.Hour)
		newest := newPost(author, base.Add(2*time.Minute))
		middle := newPost(author, base.Add(time.Minute))

		page, err := store.ListPosts(ctx, 1, nil)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, newest.ID, page.Posts[0].ID)
		require.NotNil(t, page.NextCursor)

		page, err = store.ListPosts(ctx, 1, page.NextCursor)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, middle.ID, page.Posts[0].ID)
	})

	t.Run("ListPosts pages through equal timestamps", func(t *testing.T) {
		author := newUser("twins")
		at := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Microsecond)
		want := []string{newPost(author, at).ID, newPost(author, at).ID, newPost(author, at).ID}
		sort.Strings(want)

		var got []string
		var cursor *string
		for range want {
			page, err := store.ListPosts(ctx, 1, cursor)
			require.NoError(t, err)
			require.Len(t, page.Posts, 1)
			got = append(got, page.Posts[0].ID)
			require.NotNil(t, page.NextCursor)
			cursor = page.NextCursor
		}
		assert.Equal(t, want, got)

		page, err := store.ListPosts(ctx, 1, cursor)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.NotContains(t, want, page.Posts[0].ID)
	})

	t.Run("comments with equal timestamps order by id", func(t *testing.T) {
		author := newUser("siblings")
		post := newPost(author, time.Now())
		at := time.Now().UTC().Truncate(time.Microsecond)

		want := make([]string, 3)
		for i := range want {
			want[i] = uuid.New().String()
			require.NoError(t, store.CreateComment(ctx, &models.Comment{ID: want[i], PostID: post.ID, AuthorID: author.ID, Content: "c", CreatedAt: at}))
		}
		sort.Strings(want)

		comments, err := store.ListComments(ctx, post.ID)
		require.NoError(t, err)
		got := make([]string, len(comments))
		for i, c := range comments {
			got[i] = c.ID
		}
		assert.Equal(t, want, got)
	})

	t.Run("comments in creation order", func(t *testing.T) {
		author := newUser("commenter")
		post := newPost(author, time.Now())
		base := time.Now()

		root := &models.Comment{ID: uuid.New().String(), PostID: post.ID, AuthorID: author.ID, Content: "root", CreatedAt: base}
		reply := &models.Comment{ID: uuid.New().String(), PostID: post.ID, ParentID: &root.ID, AuthorID: author.ID, Content: "reply", CreatedAt: base.Add(time.Second)}
		require.NoError(t, store.CreateComment(ctx, root))
		require.NoError(t, store.CreateComment(ctx, reply))

		comments, err := store.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, root.ID, comments[0].ID)
		assert.Nil(t, comments[0].ParentID)
		require.NotNil(t, comments[1].ParentID)
		assert.Equal(t, root.ID, *comments[1].ParentID)

		fetched, err := store.GetComment(ctx, reply.ID)
		require.NoError(t, err)
		assert.Equal(t, "reply", fetched.Content)

		err = store.CreateComment(ctx, &models.Comment{ID: uuid.New().String(), PostID: "missing", AuthorID: author.ID, Content: "x", CreatedAt: base})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("likes", func(t *testing.T) {
		postAuthor := newUser("poster")
		commentAuthor := newUser("replier")
		liker := newUser("liker")
		post := newPost(postAuthor, time.Now())
		c := &models.Comment{ID: uuid.New().String(), PostID: post.ID, AuthorID: commentAuthor.ID, Content: "c", CreatedAt: time.Now()}
		require.NoError(t, store.CreateComment(ctx, c))

		now := time.Now()
		postLike := &models.Like{ID: uuid.New().String(), UserID: liker.ID, PostID: &post.ID, CreatedAt: now}
		commentLike := &models.Like{ID: uuid.New().String(), UserID: liker.ID, CommentID: &c.ID, CreatedAt: now}
		require.NoError(t, store.CreateLike(ctx, postLike))
		require.NoError(t, store.CreateLike(ctx, commentLike))

		dup := &models.Like{ID: uuid.New().String(), UserID: liker.ID, PostID: &post.ID, CreatedAt: now}
		assert.ErrorIs(t, store.CreateLike(ctx, dup), storage.ErrAlreadyLiked)

		missing := "missing"
		assert.ErrorIs(t, store.CreateLike(ctx, &models.Like{ID: uuid.New().String(), UserID: liker.ID, PostID: &missing, CreatedAt: now}), storage.ErrNotFound)

		postLikes, err := store.ListPostLikesSince(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		found := false
		for _, l := range postLikes {
			if l.ID == postLike.ID {
				found = true
				assert.Equal(t, postAuthor.ID, l.TargetAuthorID)
				assert.Nil(t, l.CommentID)
			}
		}
		assert.True(t, found)

		commentLikes, err := store.ListCommentLikesSince(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		require.NotEmpty(t, commentLikes)
		for _, l := range commentLikes {
			if l.ID == commentLike.ID {
				assert.Equal(t, commentAuthor.ID, l.TargetAuthorID)
			}
		}

		later, err := store.ListPostLikesSince(ctx, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, later)
	})
}
