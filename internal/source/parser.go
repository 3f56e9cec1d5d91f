package source

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/pders01/reels/internal/media"
	"github.com/pders01/reels/internal/storage"
	"github.com/pders01/reels/internal/validation"
)

var (
	videoTagRegex = regexp.MustCompile(`<(?:video|source)[^>]+src=["']([^"']+)["']`)
	spaceRegex    = regexp.MustCompile(`\s+`)
)

// Parsed is one parsed feed document.
type Parsed struct {
	Title       string
	Description string
	Reels       []*storage.Reel
}

type Parser struct {
	parser   *gofeed.Parser
	detector *media.TypeDetector
	strip    *bluemonday.Policy
}

func NewParser(detector *media.TypeDetector) *Parser {
	return &Parser{
		parser:   gofeed.NewParser(),
		detector: detector,
		strip:    bluemonday.StrictPolicy(),
	}
}

// candidate is a playable URL found in an item, with whatever size hints
// the feed gave for it.
type candidate struct {
	url      string
	mime     string
	medium   string
	width    int
	height   int
	duration time.Duration
}

// Parse turns a feed document into reels. With videoOnly, items without a
// video enclosure are dropped; otherwise they fall back to the item link,
// which the external player may still be able to open.
func (p *Parser) Parse(reader io.Reader, sourceID string, videoOnly bool) (*Parsed, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	parsed := &Parsed{
		Title:       strings.TrimSpace(feed.Title),
		Description: p.plainText(feed.Description),
		Reels:       make([]*storage.Reel, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		video, ok := p.pickVideo(item)
		if !ok {
			if videoOnly || item.Link == "" {
				continue
			}
			uri, err := validation.ValidateMediaURI(item.Link)
			if err != nil {
				continue
			}
			video = candidate{url: uri}
		}

		reel := &storage.Reel{
			ID:        reelID(sourceID, item),
			SourceID:  sourceID,
			Title:     strings.TrimSpace(item.Title),
			Caption:   p.caption(item),
			Author:    author(item),
			MediaURI:  video.url,
			PageURL:   item.Link,
			Thumbnail: thumbnail(item),
			Width:     video.width,
			Height:    video.height,
			Duration:  video.duration,
		}

		if item.PublishedParsed != nil {
			reel.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			reel.Published = *item.UpdatedParsed
		}

		parsed.Reels = append(parsed.Reels, reel)
	}

	return parsed, nil
}

func (p *Parser) pickVideo(item *gofeed.Item) (candidate, bool) {
	for _, c := range candidates(item) {
		uri, err := validation.ValidateMediaURI(c.url)
		if err != nil {
			continue
		}
		if c.medium == "video" || p.detector.Classify(uri, c.mime) == media.TypeVideo {
			c.url = uri
			return c, true
		}
	}
	return candidate{}, false
}

// candidates lists media in preference order: Media RSS content, enclosures,
// inline video tags, and finally the item link.
func candidates(item *gofeed.Item) []candidate {
	var out []candidate

	for _, e := range mediaExtensions(item, "content") {
		out = append(out, candidate{
			url:      e.Attrs["url"],
			mime:     e.Attrs["type"],
			medium:   strings.ToLower(e.Attrs["medium"]),
			width:    atoi(e.Attrs["width"]),
			height:   atoi(e.Attrs["height"]),
			duration: seconds(e.Attrs["duration"]),
		})
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			out = append(out, candidate{url: enc.URL, mime: enc.Type})
		}
	}

	for _, match := range videoTagRegex.FindAllStringSubmatch(item.Content+" "+item.Description, -1) {
		out = append(out, candidate{url: html.UnescapeString(match[1])})
	}

	if item.Link != "" {
		out = append(out, candidate{url: item.Link})
	}

	return out
}

// mediaExtensions returns media:<name> elements at item level and inside
// media:group.
func mediaExtensions(item *gofeed.Item, name string) []ext.Extension {
	ns, ok := item.Extensions["media"]
	if !ok {
		return nil
	}

	out := append([]ext.Extension(nil), ns[name]...)
	for _, group := range ns["group"] {
		out = append(out, group.Children[name]...)
	}
	return out
}

func (p *Parser) caption(item *gofeed.Item) string {
	for _, e := range mediaExtensions(item, "description") {
		if text := p.plainText(e.Value); text != "" {
			return text
		}
	}
	if text := p.plainText(item.Description); text != "" {
		return text
	}
	return p.plainText(item.Content)
}

func (p *Parser) plainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(p.strip.Sanitize(s))
	return strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))
}

func author(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	for _, e := range mediaExtensions(item, "credit") {
		if e.Value != "" {
			return strings.TrimSpace(e.Value)
		}
	}
	return ""
}

func thumbnail(item *gofeed.Item) string {
	for _, e := range mediaExtensions(item, "thumbnail") {
		if u := e.Attrs["url"]; u != "" {
			return u
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// reelID is stable across refreshes. Items without a GUID get a name-based
// UUID derived from their link or media.
func reelID(sourceID string, item *gofeed.Item) string {
	if item.GUID != "" {
		return sourceID + ":" + item.GUID
	}

	name := item.Link
	if name == "" {
		if cs := candidates(item); len(cs) > 0 {
			name = cs[0].url
		}
	}
	if name == "" {
		name = item.Title
	}
	return sourceID + ":" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func seconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
