package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/media"
	"github.com/pders01/reels/internal/plugins"
	"github.com/pders01/reels/internal/search"
	"github.com/pders01/reels/internal/storage"
	"github.com/pders01/reels/internal/validation"
)

// ErrSourceExists is returned when adding a URL that resolves to a feed
// already subscribed to.
var ErrSourceExists = errors.New("source already exists")

// maxFeedSize caps how much of a response body is parsed.
const maxFeedSize = 10 << 20

// Manager is the reel-list collaborator: it subscribes to sources, keeps
// them fresh and hands the store's reels to the feed.
type Manager struct {
	store    *storage.Store
	fetcher  *Fetcher
	parser   *Parser
	resolver *plugins.Registry
	config   *config.Config
	now      func() time.Time

	mu           sync.RWMutex
	urlValidator *validation.SourceURLValidator
	indexer      search.Indexer
}

func NewManager(store *storage.Store, cfg *config.Config, detector *media.TypeDetector, resolver *plugins.Registry) *Manager {
	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(detector),
		resolver:     resolver,
		config:       cfg,
		now:          time.Now,
		urlValidator: validation.NewSourceURLValidator(),
	}
}

// SetForceRefresh makes refreshes ignore ETag/Last-Modified and the refresh
// interval.
func (m *Manager) SetForceRefresh(force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows localhost and private addresses, for
// development and tests.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if permissive {
		m.urlValidator = validation.NewPermissiveSourceURLValidator()
	} else {
		m.urlValidator = validation.NewSourceURLValidator()
	}
}

// SetIndexer registers the search index to keep in sync.
func (m *Manager) SetIndexer(indexer search.Indexer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexer = indexer
}

func (m *Manager) validator() *validation.SourceURLValidator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.urlValidator
}

func (m *Manager) currentIndexer() search.Indexer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexer
}

func (m *Manager) ignoringCache() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetcher.ignoreCache
}

// AddSource resolves rawURL through the plugins, fetches it once and stores
// the source with its reels.
func (m *Manager) AddSource(ctx context.Context, rawURL string) (*storage.Source, error) {
	v := m.validator()
	normalized, err := v.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}

	info := &plugins.SourceInfo{OriginalURL: normalized, FeedURL: normalized}
	if m.resolver != nil {
		info, err = m.resolver.ResolveSource(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("resolving source: %w", err)
		}
	}

	feedURL, err := v.ValidateAndNormalize(info.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	src := &storage.Source{
		ID:          generateSourceID(feedURL),
		URL:         feedURL,
		Title:       info.Title,
		Description: info.Description,
		VideoOnly:   info.VideoOnly,
	}

	if _, err := m.store.GetSource(src.ID); err == nil {
		return nil, fmt.Errorf("%s: %w", feedURL, ErrSourceExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking source: %w", err)
	}

	log := debuglog.WithFields(map[string]any{"source": src.ID, "url": feedURL})
	log.Infof("adding source")

	// A new source is always fetched in full.
	resp, _, err := m.fetcher.Fetch(ctx, &storage.Source{URL: src.URL})
	if err != nil {
		return nil, fmt.Errorf("fetching source: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response received")
	}
	defer resp.Body.Close()

	parsed, err := m.parse(resp.Body, src)
	if err != nil {
		return nil, err
	}

	if src.Title == "" {
		src.Title = parsed.Title
	}
	if src.Title == "" {
		src.Title = hostOf(feedURL)
	}
	if src.Description == "" {
		src.Description = parsed.Description
	}
	m.fetcher.UpdateSourceMetadata(src, resp)
	src.UpdatedAt = m.now()

	if err := m.save(src, parsed.Reels); err != nil {
		return nil, err
	}

	log.Infof("added source %q with %d reels", src.Title, len(parsed.Reels))
	return src, nil
}

// RefreshSource polls one source and returns how many reels the response
// carried. Sources fetched within the refresh interval are skipped unless
// forced.
func (m *Manager) RefreshSource(ctx context.Context, sourceID string) (int, error) {
	src, err := m.store.GetSource(sourceID)
	if err != nil {
		return 0, fmt.Errorf("getting source: %w", err)
	}

	force := m.ignoringCache()
	if !force && !src.LastFetched.IsZero() && m.now().Sub(src.LastFetched) < m.config.Feed.RefreshInterval {
		return 0, nil
	}

	log := debuglog.WithFields(map[string]any{"source": src.ID})

	resp, updated, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		log.Warnf("refresh failed: %v", err)
		return 0, fmt.Errorf("refreshing %s: %w", src.Title, err)
	}

	if !updated {
		src.LastFetched = m.now()
		if err := m.store.SaveSource(src); err != nil {
			return 0, fmt.Errorf("saving source metadata: %w", err)
		}
		log.Debugf("not modified")
		return 0, nil
	}
	defer resp.Body.Close()

	parsed, err := m.parse(resp.Body, src)
	if err != nil {
		return 0, err
	}

	m.fetcher.UpdateSourceMetadata(src, resp)
	src.UpdatedAt = m.now()

	if err := m.save(src, parsed.Reels); err != nil {
		return 0, err
	}

	log.Debugf("refreshed %d reels", len(parsed.Reels))
	return len(parsed.Reels), nil
}

// RefreshAll refreshes every source with at most
// feed.max_concurrent_refresh requests in flight. Failures of single sources
// do not stop the others; they are joined into the returned error.
func (m *Manager) RefreshAll(ctx context.Context) (int, error) {
	sources, err := m.store.GetAllSources()
	if err != nil {
		return 0, fmt.Errorf("getting sources: %w", err)
	}
	if len(sources) == 0 {
		return 0, nil
	}

	limit := m.config.Feed.MaxConcurrentRefresh
	if limit < 1 {
		limit = 1
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		errs  []error
		total int
	)
	g.SetLimit(limit)

	for _, src := range sources {
		g.Go(func() error {
			n, err := m.RefreshSource(ctx, src.ID)
			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil {
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return total, errors.Join(errs...)
}

// DeleteSource removes a source, its reels and their index entries.
func (m *Manager) DeleteSource(sourceID string) error {
	removed, err := m.store.DeleteSource(sourceID)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	if idx := m.currentIndexer(); idx != nil {
		idx.OnSourceDeleted(sourceID, removed)
	}
	debuglog.Infof("deleted source %s with %d reels", sourceID, len(removed))
	return nil
}

// Reels returns the feed: every stored reel across sources, newest first.
func (m *Manager) Reels(limit int) ([]*storage.Reel, error) {
	return m.store.GetReels("", limit)
}

func (m *Manager) parse(body io.Reader, src *storage.Source) (*Parsed, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	parsed, err := m.parser.Parse(bytes.NewReader(data), src.ID, src.VideoOnly)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	return parsed, nil
}

func (m *Manager) save(src *storage.Source, reels []*storage.Reel) error {
	if err := m.store.SaveSource(src); err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	if err := m.store.SaveReels(reels); err != nil {
		return fmt.Errorf("saving reels: %w", err)
	}
	if idx := m.currentIndexer(); idx != nil {
		idx.OnReelsUpdated(src, reels)
	}
	return nil
}

func generateSourceID(feedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(feedURL)))[:16]
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return "Unknown Source"
}
