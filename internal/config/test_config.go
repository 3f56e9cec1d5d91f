package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Playback: def.Playback,
		Database: DatabaseConfig{
			Path:    ":memory:", // tests replace this with a t.TempDir path
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			HTTPTimeout:          5 * time.Second,
			RefreshInterval:      1 * time.Minute,
			DefaultRetryAfter:    5 * time.Minute,
			UserAgent:            "reels-test/1.0",
			MaxConcurrentRefresh: 2,
		},
		UI:    def.UI,
		Media: def.Media,
		Keys:  def.Keys,
		Log:   LogConfig{Level: "OFF"},
	}
}
