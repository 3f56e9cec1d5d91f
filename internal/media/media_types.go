package media

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	MIMETypes   []string `toml:"mime_types"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Image     TypeConfig                `toml:"image"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

// TypeDetector classifies media URLs. The feed parser uses it to keep only
// video enclosures.
type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if _, err := toml.Decode(string(mediaTypesTOML), &config); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}

	return &TypeDetector{config: &config}, nil
}

func (d *TypeDetector) DetectType(url string) Type {
	lower := strings.ToLower(url)
	isURL := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	// Strip query and fragment before looking for an extension
	path := lower
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		path = path[:idx]
	}
	var ext string
	if idx := strings.LastIndex(path, "."); idx != -1 && idx > strings.LastIndex(path, "/") {
		ext = path[idx+1:]
	}

	if ext != "" {
		if hasEntry(d.config.Video.Extensions, ext) {
			return TypeVideo
		}
		if hasEntry(d.config.Audio.Extensions, ext) {
			return TypeAudio
		}
		if hasEntry(d.config.Image.Extensions, ext) {
			return TypeImage
		}
	}

	if isURL {
		if matchesPattern(lower, d.config.Video.URLPatterns) {
			return TypeVideo
		}
		if matchesPattern(lower, d.config.Audio.URLPatterns) {
			return TypeAudio
		}
		if matchesPattern(lower, d.config.Image.URLPatterns) {
			return TypeImage
		}
	}

	return TypeUnknown
}

// DetectMIME classifies a MIME type such as "video/mp4".
func (d *TypeDetector) DetectMIME(mime string) Type {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" {
		return TypeUnknown
	}
	switch {
	case hasPrefix(mime, d.config.Video.MIMETypes):
		return TypeVideo
	case hasPrefix(mime, d.config.Audio.MIMETypes):
		return TypeAudio
	case hasPrefix(mime, d.config.Image.MIMETypes):
		return TypeImage
	}
	return TypeUnknown
}

// Classify prefers an explicit MIME type and falls back to the URL.
func (d *TypeDetector) Classify(url, mime string) Type {
	if t := d.DetectMIME(mime); t != TypeUnknown {
		return t
	}
	return d.DetectType(url)
}

func (d *TypeDetector) GetDefaultOpener() string {
	if platformConfig, ok := d.config.Platforms[runtime.GOOS]; ok {
		return platformConfig.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}

func hasEntry(entries []string, s string) bool {
	for _, e := range entries {
		if e == s {
			return true
		}
	}
	return false
}

func hasPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func matchesPattern(url string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}
