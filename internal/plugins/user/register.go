package user

import "github.com/pders01/reels/internal/plugins"

// RegisterAll adds the bundled source plugins to r.
func RegisterAll(r *plugins.Registry) {
	r.Register(NewRedditPlugin())
	r.Register(NewYouTubePlugin())
}
