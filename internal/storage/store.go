package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a source or reel does not exist.
var ErrNotFound = errors.New("not found")

var (
	sourcesBucket = []byte("sources")
	reelsBucket   = []byte("reels")
	metaBucket    = []byte("metadata")

	positionKey = []byte("position")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting up to timeout for the file
// lock held by another process.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{sourcesBucket, reelsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSource(src *Source) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sourcesBucket)
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return b.Put([]byte(src.ID), data)
	})
}

func (s *Store) GetSource(id string) (*Source, error) {
	var src Source
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sourcesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("source %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &src)
	})
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Store) GetAllSources() ([]*Source, error) {
	var sources []*Source
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sourcesBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var src Source
			if err := json.Unmarshal(v, &src); err != nil {
				return err
			}
			sources = append(sources, &src)
			return nil
		})
	})
	// Sort by title (case-insensitive), falling back to URL
	sort.Slice(sources, func(i, j int) bool {
		ti := sources[i].Title
		tj := sources[j].Title
		if ti == "" {
			ti = sources[i].URL
		}
		if tj == "" {
			tj = sources[j].URL
		}
		return strings.ToLower(ti) < strings.ToLower(tj)
	})
	return sources, err
}

// SaveReels upserts reels. The user's like, saved and seen flags on an
// existing record survive a refresh that re-delivers the same reel.
func (s *Store) SaveReels(reels []*Reel) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(reelsBucket)
		for _, reel := range reels {
			if existing := b.Get([]byte(reel.ID)); existing != nil {
				var prev Reel
				if err := json.Unmarshal(existing, &prev); err == nil {
					reel.Liked = reel.Liked || prev.Liked
					reel.Saved = reel.Saved || prev.Saved
					reel.Seen = reel.Seen || prev.Seen
				}
			}
			data, err := json.Marshal(reel)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(reel.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetReel(id string) (*Reel, error) {
	var reel Reel
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(reelsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("reel %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &reel)
	})
	if err != nil {
		return nil, err
	}
	return &reel, nil
}

// GetReels returns reels of sourceID, or of every source when sourceID is
// empty, newest first.
func (s *Store) GetReels(sourceID string, limit int) ([]*Reel, error) {
	var reels []*Reel
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(reelsBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var reel Reel
			if err := json.Unmarshal(v, &reel); err != nil {
				return nil
			}
			if sourceID == "" || reel.SourceID == sourceID {
				reels = append(reels, &reel)
			}
			return nil
		})
	})
	sort.SliceStable(reels, func(i, j int) bool {
		if reels[i].Published.Equal(reels[j].Published) {
			return reels[i].ID < reels[j].ID
		}
		return reels[i].Published.After(reels[j].Published)
	})
	if limit > 0 && len(reels) > limit {
		reels = reels[:limit]
	}
	return reels, err
}

// ToggleLike flips the like flag of a reel and returns the new value.
func (s *Store) ToggleLike(id string) (bool, error) {
	var liked bool
	err := s.updateReel(id, func(r *Reel) {
		r.Liked = !r.Liked
		liked = r.Liked
	})
	return liked, err
}

func (s *Store) SetSaved(id string, saved bool) error {
	return s.updateReel(id, func(r *Reel) { r.Saved = saved })
}

func (s *Store) MarkSeen(id string) error {
	return s.updateReel(id, func(r *Reel) { r.Seen = true })
}

func (s *Store) updateReel(id string, mutate func(*Reel)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(reelsBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("reel %s: %w", id, ErrNotFound)
		}

		var reel Reel
		if err := json.Unmarshal(data, &reel); err != nil {
			return err
		}

		mutate(&reel)

		data, err := json.Marshal(reel)
		if err != nil {
			return err
		}

		return b.Put([]byte(id), data)
	})
}

// DeleteSource removes a source and its reels. It returns the ids of the
// removed reels so callers can drop them from caches and indexes.
func (s *Store) DeleteSource(id string) ([]string, error) {
	var removed []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(sourcesBucket).Delete([]byte(id)); err != nil {
			return err
		}

		// Deleting through a cursor mid-iteration skips the following key,
		// so collect first.
		b := tx.Bucket(reelsBucket)
		err := b.ForEach(func(k, v []byte) error {
			var reel Reel
			if err := json.Unmarshal(v, &reel); err != nil {
				return nil
			}
			if reel.SourceID == id {
				removed = append(removed, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range removed {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

func (s *Store) SavePosition(pos Position) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(pos)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(positionKey, data)
	})
}

// GetPosition returns the saved feed position. ok is false if none was saved.
func (s *Store) GetPosition() (pos Position, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(positionKey)
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &pos)
	})
	return pos, ok, err
}
