package search

import "github.com/pders01/reels/internal/storage"

// Searcher is the search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer is implemented by engines that keep an external index and need
// to hear about data changes.
type Indexer interface {
	OnReelsUpdated(src *storage.Source, reels []*storage.Reel)
	OnSourceDeleted(sourceID string, reelIDs []string)
}

// DocCounter reports index size for the debug status line.
type DocCounter interface {
	DocCount() (int, error)
}
