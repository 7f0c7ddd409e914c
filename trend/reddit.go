package trend

import (
	"context"
	"errors"
	"math"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// ErrNoResults means the source had nothing for a keyword; the caller treats
// it like any other source failure and falls back.
var ErrNoResults = errors.New("trend source returned no results")

// RedditSource scores a keyword by the aggregate score of recent posts
// matching it. Read-only access, no credentials required.
type RedditSource struct {
	client *reddit.Client
}

func NewRedditSource() (*RedditSource, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, err
	}
	return &RedditSource{client: client}, nil
}

func (s *RedditSource) Available() bool {
	return s != nil && s.client != nil
}

// Score searches the past week of posts for the keyword and maps the summed
// post score onto a bounded 0-100 scale.
func (s *RedditSource) Score(ctx context.Context, keyword string) (float64, error) {
	posts, _, err := s.client.Subreddit.SearchPosts(ctx, keyword, "", &reddit.ListPostSearchOptions{
		ListPostOptions: reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: 25},
			Time:        "week",
		},
		Sort: "relevance",
	})
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, ErrNoResults
	}

	total := 0
	for _, p := range posts {
		total += p.Score
	}
	return math.Min(100, 20*math.Log10(1+float64(total))), nil
}
