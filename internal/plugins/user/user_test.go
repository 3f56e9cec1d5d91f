package user

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reels/internal/plugins"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubClient(status int, body string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}
}

func TestRedditPlugin_CanHandle(t *testing.T) {
	plugin := NewRedditPlugin()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"subreddit URL", "https://www.reddit.com/r/golang", true},
		{"without www", "https://reddit.com/r/programming", true},
		{"old reddit", "https://old.reddit.com/r/videos", true},
		{"trailing slash", "https://www.reddit.com/r/golang/", true},
		{"non-Reddit URL", "https://example.com/feed", false},
		{"user page", "https://www.reddit.com/user/someuser", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, plugin.CanHandle(tt.url))
		})
	}
}

func TestRedditPlugin_ResolveSource(t *testing.T) {
	plugin := NewRedditPlugin()

	tests := []struct {
		name              string
		url               string
		expectedFeedURL   string
		expectedSubreddit string
	}{
		{"simple", "https://www.reddit.com/r/golang", "https://www.reddit.com/r/golang.rss", "golang"},
		{"trailing slash", "https://www.reddit.com/r/videos/", "https://www.reddit.com/r/videos.rss", "videos"},
		{"already rss", "https://reddit.com/r/rust.rss", "https://reddit.com/r/rust.rss", "rust"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := plugin.ResolveSource(context.Background(), tt.url, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.url, result.OriginalURL)
			assert.Equal(t, tt.expectedFeedURL, result.FeedURL)
			assert.True(t, result.VideoOnly)
			assert.Equal(t, "reddit", result.Metadata["plugin"])
			assert.Equal(t, tt.expectedSubreddit, result.Metadata["subreddit"])
		})
	}
}

func TestYouTubePlugin_CanHandle(t *testing.T) {
	plugin := NewYouTubePlugin()

	assert.True(t, plugin.CanHandle("https://www.youtube.com/@golang"))
	assert.True(t, plugin.CanHandle("https://youtube.com/channel/UC_x5XG1OV2P6uZZ5FSM9Ttw"))
	assert.False(t, plugin.CanHandle("https://www.youtube.com/watch?v=abc"))
	assert.False(t, plugin.CanHandle("https://example.com/@someone"))
}

func TestYouTubePlugin_ChannelURL(t *testing.T) {
	plugin := NewYouTubePlugin()
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("no network expected")
	})}

	info, err := plugin.ResolveSource(context.Background(), "https://www.youtube.com/channel/UC_x5XG1OV2P6uZZ5FSM9Ttw", client)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UC_x5XG1OV2P6uZZ5FSM9Ttw", info.FeedURL)
	assert.Equal(t, "UC_x5XG1OV2P6uZZ5FSM9Ttw", info.Metadata["channel_id"])
	assert.False(t, info.VideoOnly)
}

func TestYouTubePlugin_HandleLookup(t *testing.T) {
	plugin := NewYouTubePlugin()
	page := `<html><script>var ytInitialData = {"externalId":"UCabcdefghijklmnopqrstuv"};</script></html>`

	info, err := plugin.ResolveSource(context.Background(), "https://www.youtube.com/@gopher/shorts", stubClient(http.StatusOK, page))
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCabcdefghijklmnopqrstuv", info.FeedURL)
	assert.Equal(t, "YouTube - @gopher", info.Title)
}

func TestYouTubePlugin_HandleLookupFailures(t *testing.T) {
	plugin := NewYouTubePlugin()

	_, err := plugin.ResolveSource(context.Background(), "https://www.youtube.com/@gopher", stubClient(http.StatusNotFound, ""))
	assert.Error(t, err)

	_, err = plugin.ResolveSource(context.Background(), "https://www.youtube.com/@gopher", stubClient(http.StatusOK, "<html></html>"))
	assert.Error(t, err)
}

func TestRegisterAll(t *testing.T) {
	registry := plugins.NewRegistry(5 * time.Second)
	RegisterAll(registry)

	assert.Len(t, registry.ListPlugins(), 2)
	assert.Equal(t, "reddit", registry.FindPlugin("https://www.reddit.com/r/videos").Name())
	assert.Equal(t, "youtube", registry.FindPlugin("https://www.youtube.com/@golang").Name())

	info, err := registry.ResolveSource(context.Background(), "https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed.xml", info.FeedURL)
}
