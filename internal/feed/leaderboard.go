package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
)

// Points awarded to the author of the liked entity.
const (
	PostLikePoints    = 5
	CommentLikePoints = 1
)

const (
	DefaultWindowHours = 24
	DefaultTopN        = 5
)

type LeaderboardOptions struct {
	// WindowHours is the trailing window; a like exactly WindowHours old counts.
	WindowHours int
	TopN        int
	// Strict aborts on the first malformed like instead of skipping it.
	Strict bool
}

func DefaultLeaderboardOptions() LeaderboardOptions {
	return LeaderboardOptions{WindowHours: DefaultWindowHours, TopN: DefaultTopN}
}

func (o LeaderboardOptions) Validate() error {
	if o.WindowHours <= 0 {
		return fmt.Errorf("%w: window hours must be positive, got %d", ErrInvalidConfiguration, o.WindowHours)
	}
	if o.TopN <= 0 {
		return fmt.Errorf("%w: top n must be positive, got %d", ErrInvalidConfiguration, o.TopN)
	}
	return nil
}

type Leaderboard struct {
	Entries []models.LeaderboardEntry
	// Skipped holds a *MalformedLikeError for every like left out of the tally.
	Skipped []error
}

// ComputeLeaderboard ranks target authors by the weighted likes they received
// inside the window ending at now. Ties are broken by ascending user id.
func ComputeLeaderboard(likes []models.Like, now time.Time, opts LeaderboardOptions) (*Leaderboard, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	windowStart := now.Add(-time.Duration(opts.WindowHours) * time.Hour)
	scores := make(map[string]int)
	var skipped []error

	for _, like := range likes {
		if like.CreatedAt.Before(windowStart) {
			continue
		}
		points, err := likePoints(like)
		if err != nil {
			if opts.Strict {
				return nil, err
			}
			skipped = append(skipped, err)
			continue
		}
		scores[like.TargetAuthorID] += points
	}

	return &Leaderboard{Entries: rank(scores, opts.TopN), Skipped: skipped}, nil
}

// MergeScores sums two partial tallies by author.
func MergeScores(a, b map[string]int) map[string]int {
	merged := make(map[string]int, len(a)+len(b))
	for id, score := range a {
		merged[id] += score
	}
	for id, score := range b {
		merged[id] += score
	}
	return merged
}

func likePoints(like models.Like) (int, error) {
	switch {
	case like.PostID != nil && like.CommentID != nil:
		return 0, &MalformedLikeError{LikeID: like.ID, Reason: "targets both a post and a comment"}
	case like.PostID == nil && like.CommentID == nil:
		return 0, &MalformedLikeError{LikeID: like.ID, Reason: "has no target"}
	case like.TargetAuthorID == "":
		return 0, &MalformedLikeError{LikeID: like.ID, Reason: "target author not resolved"}
	case like.PostID != nil:
		return PostLikePoints, nil
	default:
		return CommentLikePoints, nil
	}
}

func rank(scores map[string]int, topN int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, models.LeaderboardEntry{UserID: id, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
