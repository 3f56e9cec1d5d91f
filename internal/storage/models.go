package storage

import (
	"time"
)

// Source is a subscribed reel feed.
type Source struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoOnly    bool      `json:"video_only"`
	LastFetched  time.Time `json:"last_fetched"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reel is one short video. Width and Height are hints from the feed; the
// player's reported size is authoritative.
type Reel struct {
	ID        string        `json:"id"`
	SourceID  string        `json:"source_id"`
	Title     string        `json:"title"`
	Caption   string        `json:"caption"`
	Author    string        `json:"author"`
	MediaURI  string        `json:"media_uri"`
	PageURL   string        `json:"page_url"`
	Thumbnail string        `json:"thumbnail"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Duration  time.Duration `json:"duration"`
	Published time.Time     `json:"published"`
	Liked     bool          `json:"liked"`
	Saved     bool          `json:"saved"`
	Seen      bool          `json:"seen"`
}

// Position is where the feed was left, so the next session resumes there.
type Position struct {
	ReelID    string    `json:"reel_id"`
	Index     int       `json:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}
