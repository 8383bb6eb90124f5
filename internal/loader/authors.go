// Package loader batches author lookups made while rendering a single request.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
	"github.com/graph-gophers/dataloader/v7"
)

type ctxKey struct{}

// UserSource is the part of the store the loader needs.
type UserSource interface {
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
}

type AuthorLoader = dataloader.Loader[string, *models.User]

// NewAuthorLoader returns a loader that collects ids for a short wait and
// resolves them with one GetUsers call. Unknown ids resolve to an error.
func NewAuthorLoader(source UserSource) *AuthorLoader {
	batch := func(ctx context.Context, ids []string) []*dataloader.Result[*models.User] {
		results := make([]*dataloader.Result[*models.User], len(ids))

		users, err := source.GetUsers(ctx, ids)
		if err != nil {
			for i := range ids {
				results[i] = &dataloader.Result[*models.User]{Error: fmt.Errorf("failed to load authors: %w", err)}
			}
			return results
		}

		for i, id := range ids {
			if u, ok := users[id]; ok {
				results[i] = &dataloader.Result[*models.User]{Data: u}
			} else {
				results[i] = &dataloader.Result[*models.User]{Error: fmt.Errorf("author %s not found", id)}
			}
		}
		return results
	}

	return dataloader.NewBatchedLoader(batch,
		dataloader.WithWait[string, *models.User](2*time.Millisecond),
	)
}

func WithAuthorLoader(ctx context.Context, l *AuthorLoader) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// AuthorLoaderFrom returns the request-scoped loader, if one was attached.
func AuthorLoaderFrom(ctx context.Context) (*AuthorLoader, bool) {
	l, ok := ctx.Value(ctxKey{}).(*AuthorLoader)
	return l, ok
}

// Usernames resolves ids to usernames in one batch. Ids that fail to resolve
// are left out of the map.
func Usernames(ctx context.Context, l *AuthorLoader, ids []string) map[string]string {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, _ := l.LoadMany(ctx, unique)()
	names := make(map[string]string, len(unique))
	for i, u := range users {
		if u != nil {
			names[unique[i]] = u.Username
		}
	}
	return names
}
