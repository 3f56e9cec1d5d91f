package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/storage"
)

// BleveEngine keeps a persistent full-text index of sources and reels.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

type fieldBoost struct {
	name        string
	match       float64
	prefixMatch float64
}

var boosts = []fieldBoost{
	{"title", 4.0, 3.5},
	{"caption", 2.0, 1.8},
	{"author", 1.5, 1.2},
	{"source_title", 1.0, 0.8},
}

// NewBleveEngine opens the index at indexPath, creating it when missing,
// and indexes everything currently in the store.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("indexing: %w", err)
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	text := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = store
		return fm
	}

	title := text(true)
	title.IncludeTermVectors = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("caption", text(true))
	dm.AddFieldMappingsAt("author", text(true))
	dm.AddFieldMappingsAt("source_title", text(false))

	// ids are matched exactly
	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true
	dm.AddFieldMappingsAt("source_id", keyword)
	dm.AddFieldMappingsAt("type", keyword)

	im.DefaultMapping = dm
	return im
}

func sourceDoc(src *storage.Source) map[string]any {
	return map[string]any{
		"type":         "source",
		"source_id":    src.ID,
		"title":        src.Title,
		"caption":      src.Description,
		"source_title": src.Title,
	}
}

func reelDoc(src *storage.Source, reel *storage.Reel) map[string]any {
	doc := map[string]any{
		"type":      "reel",
		"source_id": reel.SourceID,
		"title":     reel.Title,
		"caption":   reel.Caption,
		"author":    reel.Author,
	}
	if src != nil {
		doc["source_title"] = src.Title
	}
	return doc
}

func (b *BleveEngine) reindexAll() error {
	sources, err := b.store.GetAllSources()
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, src := range sources {
		if err := batch.Index(docIDForSource(src.ID), sourceDoc(src)); err != nil {
			return err
		}

		reels, err := b.store.GetReels(src.ID, 0)
		if err != nil {
			return err
		}
		for _, reel := range reels {
			if err := batch.Index(docIDForReel(reel.ID), reelDoc(src, reel)); err != nil {
				return err
			}
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.prefixMatch)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	if limit <= 0 {
		limit = 50
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "caption", "author", "source_id"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{Score: h.Score}
		sourceID, _ := h.Fields["source_id"].(string)

		switch {
		case strings.HasPrefix(h.ID, "source:"):
			src, err := b.store.GetSource(strings.TrimPrefix(h.ID, "source:"))
			if err != nil {
				continue
			}
			r.Source = src
		case strings.HasPrefix(h.ID, "reel:"):
			reel, err := b.store.GetReel(strings.TrimPrefix(h.ID, "reel:"))
			if err != nil {
				// index is ahead of the store; skip rather than show a ghost
				continue
			}
			r.Reel = reel
			if src, err := b.store.GetSource(sourceID); err == nil {
				r.Source = src
			}
		default:
			continue
		}

		for _, field := range []string{"title", "caption", "author"} {
			if text, ok := h.Fields[field].(string); ok && text != "" && containsAny(text, tokenize(query)) {
				r.Matches = append(r.Matches, Match{Field: field, Text: truncate(text, 150)})
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// OnReelsUpdated indexes src and its reels.
func (b *BleveEngine) OnReelsUpdated(src *storage.Source, reels []*storage.Reel) {
	batch := b.idx.NewBatch()
	if src != nil {
		_ = batch.Index(docIDForSource(src.ID), sourceDoc(src))
	}
	for _, reel := range reels {
		_ = batch.Index(docIDForReel(reel.ID), reelDoc(src, reel))
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Warnf("search: indexing %d reels: %v", len(reels), err)
	}
}

// OnSourceDeleted removes the source document and the given reels.
func (b *BleveEngine) OnSourceDeleted(sourceID string, reelIDs []string) {
	batch := b.idx.NewBatch()
	batch.Delete(docIDForSource(sourceID))
	for _, id := range reelIDs {
		batch.Delete(docIDForReel(id))
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Warnf("search: removing source %s: %v", sourceID, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

func docIDForSource(id string) string { return "source:" + id }
func docIDForReel(id string) string   { return "reel:" + id }
