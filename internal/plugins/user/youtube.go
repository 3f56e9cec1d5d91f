package user

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pders01/reels/internal/plugins"
)

const youtubeFeedBase = "https://www.youtube.com/feeds/videos.xml?channel_id="

var (
	channelPathRe = regexp.MustCompile(`/channel/(UC[0-9A-Za-z_-]{22})`)
	channelMetaRe = regexp.MustCompile(`"(?:channelId|externalId)":"(UC[0-9A-Za-z_-]{22})"`)
)

// YouTubePlugin resolves channel and @handle URLs to the channel's video feed.
type YouTubePlugin struct{}

func NewYouTubePlugin() *YouTubePlugin {
	return &YouTubePlugin{}
}

func (p *YouTubePlugin) Name() string {
	return "youtube"
}

func (p *YouTubePlugin) CanHandle(url string) bool {
	if !strings.Contains(url, "://www.youtube.com/") && !strings.Contains(url, "://youtube.com/") &&
		!strings.Contains(url, "://m.youtube.com/") {
		return false
	}
	return strings.Contains(url, "/channel/") || strings.Contains(url, "/@")
}

func (p *YouTubePlugin) Priority() int {
	return 60
}

func (p *YouTubePlugin) ResolveSource(ctx context.Context, rawURL string, client *http.Client) (*plugins.SourceInfo, error) {
	channelID := ""
	if m := channelPathRe.FindStringSubmatch(rawURL); m != nil {
		channelID = m[1]
	} else {
		id, err := p.lookupChannelID(ctx, rawURL, client)
		if err != nil {
			return nil, err
		}
		channelID = id
	}

	title := "YouTube - " + channelID
	if idx := strings.Index(rawURL, "/@"); idx != -1 {
		handle := strings.Split(rawURL[idx+1:], "/")[0]
		title = "YouTube - " + handle
	}

	return &plugins.SourceInfo{
		OriginalURL: rawURL,
		FeedURL:     youtubeFeedBase + channelID,
		Title:       title,
		Description: "Uploads from " + strings.TrimPrefix(title, "YouTube - "),
		Metadata: map[string]string{
			"plugin":     "youtube",
			"channel_id": channelID,
		},
	}, nil
}

// lookupChannelID loads a handle page and reads the channel id it embeds.
func (p *YouTubePlugin) lookupChannelID(ctx context.Context, rawURL string, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching channel page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("reading channel page: %w", err)
	}
	if m := channelMetaRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	if m := channelPathRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", fmt.Errorf("no channel id found at %s", rawURL)
}
