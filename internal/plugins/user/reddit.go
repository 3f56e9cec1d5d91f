package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/pders01/reels/internal/plugins"
)

// RedditPlugin turns subreddit URLs into their RSS feed. Subreddit feeds mix
// text posts with videos, so only video posts are kept.
type RedditPlugin struct{}

func NewRedditPlugin() *RedditPlugin {
	return &RedditPlugin{}
}

func (p *RedditPlugin) Name() string {
	return "reddit"
}

func (p *RedditPlugin) CanHandle(url string) bool {
	return strings.Contains(url, "://www.reddit.com/r/") ||
		strings.Contains(url, "://reddit.com/r/") ||
		strings.Contains(url, "://old.reddit.com/r/")
}

func (p *RedditPlugin) Priority() int {
	return 50
}

func (p *RedditPlugin) ResolveSource(_ context.Context, rawURL string, _ *http.Client) (*plugins.SourceInfo, error) {
	trimmed := strings.TrimSuffix(rawURL, "/")

	subreddit := "unknown"
	if parts := strings.SplitN(trimmed, "/r/", 2); len(parts) == 2 {
		subreddit = strings.TrimSuffix(strings.Split(parts[1], "/")[0], ".rss")
	}

	feedURL := trimmed
	if !strings.HasSuffix(feedURL, ".rss") {
		feedURL += ".rss"
	}

	return &plugins.SourceInfo{
		OriginalURL: rawURL,
		FeedURL:     feedURL,
		Title:       "Reddit - r/" + subreddit,
		Description: "Videos from r/" + subreddit,
		VideoOnly:   true,
		Metadata: map[string]string{
			"plugin":    "reddit",
			"subreddit": subreddit,
		},
	}, nil
}
