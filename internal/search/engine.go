package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/reels/internal/storage"
)

// Result is one matching reel, or a matching source when Reel is nil.
type Result struct {
	Source  *storage.Source
	Reel    *storage.Reel
	Score   float64
	Matches []Match
}

// Match records which field matched
type Match struct {
	Field  string // "title", "caption", "author", "source"
	Text   string
	Weight float64
}

// Engine scans the store directly. It backs search when no bleve index is
// configured.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

const reelsPerSource = 500

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	sources, err := e.store.GetAllSources()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, src := range sources {
		if r := e.searchSource(src, terms); r != nil {
			results = append(results, r)
		}

		reels, err := e.store.GetReels(src.ID, reelsPerSource)
		if err != nil {
			continue
		}
		for _, reel := range reels {
			if r := e.searchReel(src, reel, terms); r != nil {
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchSource(src *storage.Source, terms []string) *Result {
	var matches []Match
	var total float64

	if s := scoreField(src.Title, terms, 3.0); s > 0 {
		matches = append(matches, Match{Field: "title", Text: src.Title, Weight: s})
		total += s
	}
	if s := scoreField(src.Description, terms, 1.0); s > 0 {
		matches = append(matches, Match{Field: "description", Text: truncate(src.Description, 100), Weight: s})
		total += s
	}

	if total == 0 {
		return nil
	}
	return &Result{Source: src, Score: total, Matches: matches}
}

func (e *Engine) searchReel(src *storage.Source, reel *storage.Reel, terms []string) *Result {
	var matches []Match
	var total float64

	if s := scoreField(reel.Title, terms, 4.0); s > 0 {
		matches = append(matches, Match{Field: "title", Text: reel.Title, Weight: s})
		total += s
	}
	if s := scoreField(reel.Caption, terms, 2.0); s > 0 {
		matches = append(matches, Match{Field: "caption", Text: findBestSnippet(reel.Caption, terms, 150), Weight: s})
		total += s
	}
	if s := scoreField(reel.Author, terms, 1.5); s > 0 {
		matches = append(matches, Match{Field: "author", Text: reel.Author, Weight: s})
		total += s
	}

	if total == 0 {
		return nil
	}

	total *= 1.0 + e.recencyBoost(reel.Published)
	return &Result{Source: src, Reel: reel, Score: total, Matches: matches}
}

// recencyBoost adds up to 10% for reels published within the last week.
func (e *Engine) recencyBoost(published time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := e.now().Sub(published)
	const week = 7 * 24 * time.Hour
	if age < 0 {
		age = 0
	}
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}

func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	window := maxLength / 8
	if len(words) == 0 || window >= len(words) {
		return truncate(text, maxLength)
	}

	bestScore, bestStart := 0, 0
	for i := 0; i <= len(words)-window; i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(chunk, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore, bestStart = score, i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLength)
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
