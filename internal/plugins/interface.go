package plugins

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"time"
)

// SourceInfo is what a plugin learned about a URL the user subscribed to
type SourceInfo struct {
	// Original URL that was requested
	OriginalURL string
	// FeedURL is the machine-readable feed to poll (e.g. a channel's video RSS)
	FeedURL string
	// Title such as "YouTube - @creator" instead of "www.youtube.com"
	Title       string
	Description string
	// VideoOnly asks the parser to drop items without a playable video
	VideoOnly bool
	Metadata  map[string]string
}

// Plugin turns host-specific URLs into reel feeds
type Plugin interface {
	Name() string

	// CanHandle returns true if this plugin can handle the given URL
	CanHandle(url string) bool

	// ResolveSource may perform HTTP requests to find the feed behind url
	ResolveSource(ctx context.Context, url string, client *http.Client) (*SourceInfo, error)

	// Priority breaks ties when several plugins handle a URL (higher wins)
	Priority() int
}

// Registry holds plugins ordered by descending priority. Plugins registered
// with equal priority keep registration order.
type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		client: &http.Client{Timeout: timeout},
	}
}

func (r *Registry) Register(plugin Plugin) {
	i := sort.Search(len(r.plugins), func(i int) bool {
		return r.plugins[i].Priority() < plugin.Priority()
	})
	r.plugins = slices.Insert(r.plugins, i, plugin)
}

// FindPlugin returns the highest priority plugin that can handle url
func (r *Registry) FindPlugin(url string) Plugin {
	for _, p := range r.plugins {
		if p.CanHandle(url) {
			return p
		}
	}
	return nil
}

// ResolveSource resolves url through the best plugin, or returns it unchanged
func (r *Registry) ResolveSource(ctx context.Context, url string) (*SourceInfo, error) {
	plugin := r.FindPlugin(url)
	if plugin == nil {
		return &SourceInfo{
			OriginalURL: url,
			FeedURL:     url,
			Metadata:    make(map[string]string),
		}, nil
	}

	info, err := plugin.ResolveSource(ctx, url, r.client)
	if err != nil {
		return nil, fmt.Errorf("%s plugin: %w", plugin.Name(), err)
	}
	if info.OriginalURL == "" {
		info.OriginalURL = url
	}
	if info.FeedURL == "" {
		info.FeedURL = url
	}
	if info.Metadata == nil {
		info.Metadata = make(map[string]string)
	}
	info.Metadata["plugin"] = plugin.Name()
	return info, nil
}

// ListPlugins returns a copy of the registered plugins in priority order
func (r *Registry) ListPlugins() []Plugin {
	return slices.Clone(r.plugins)
}
