package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/reels/internal/aspect"
)

type Config struct {
	Playback PlaybackConfig `mapstructure:"playback"`
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type PlaybackConfig struct {
	DoubleTapWindow    time.Duration `mapstructure:"double_tap_window"`
	LongPressThreshold time.Duration `mapstructure:"long_press_threshold"`
	MinDwell           time.Duration `mapstructure:"min_dwell"`
	MinVisibleFraction float64       `mapstructure:"min_visible_fraction"`
	AllowedRatios      []string      `mapstructure:"allowed_ratios"`
	DefaultRatio       string        `mapstructure:"default_ratio"`
	Loop               bool          `mapstructure:"loop"`
	StartMuted         bool          `mapstructure:"start_muted"`
	WindowSize         int           `mapstructure:"window_size"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type FeedConfig struct {
	HTTPTimeout          time.Duration `mapstructure:"http_timeout"`
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`
	DefaultRetryAfter    time.Duration `mapstructure:"default_retry_after"`
	UserAgent            string        `mapstructure:"user_agent"`
	MaxConcurrentRefresh int           `mapstructure:"max_concurrent_refresh"`
}

type UIConfig struct {
	Colors UIColors   `mapstructure:"colors"`
	Card   CardConfig `mapstructure:"card"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type CardConfig struct {
	MaxCaptionLength int `mapstructure:"max_caption_length"`
	Width            int `mapstructure:"width"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux"`
	Windows       MediaPlayers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaPlayers struct {
	Video []string `mapstructure:"video"`
	Image []string `mapstructure:"image"`
	Audio []string `mapstructure:"audio"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit    string `mapstructure:"quit"`
	Down    string `mapstructure:"down"`
	Up      string `mapstructure:"up"`
	Tap     string `mapstructure:"tap"`
	Hold    string `mapstructure:"hold"`
	Open    string `mapstructure:"open"`
	Add     string `mapstructure:"add"`
	Search  string `mapstructure:"search"`
	Refresh string `mapstructure:"refresh"`
	Retry   string `mapstructure:"retry"`
	Back    string `mapstructure:"back"`
	Help    string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".reels")

	return &Config{
		Playback: PlaybackConfig{
			DoubleTapWindow:    300 * time.Millisecond,
			LongPressThreshold: 500 * time.Millisecond,
			MinDwell:           100 * time.Millisecond,
			MinVisibleFraction: 0.5,
			AllowedRatios:      []string{"16:9", "9:16", "4:3"},
			DefaultRatio:       "9:16",
			Loop:               true,
			StartMuted:         false,
			WindowSize:         3,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "reels.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Feed: FeedConfig{
			HTTPTimeout:          30 * time.Second,
			RefreshInterval:      5 * time.Minute,
			DefaultRetryAfter:    15 * time.Minute,
			UserAgent:            "reels/1.0 (https://github.com/pders01/reels)",
			MaxConcurrentRefresh: 4,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Card: CardConfig{
				MaxCaptionLength: 280,
				Width:            48,
			},
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Video: []string{"iina", "mpv", "vlc"},
				Image: []string{"preview", "open"},
				Audio: []string{"mpv", "vlc", "open"},
			},
			Linux: MediaPlayers{
				Video: []string{"mpv", "vlc", "mplayer"},
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
				Audio: []string{"mpv", "vlc", "mplayer"},
			},
			Windows: MediaPlayers{
				Video: []string{"mpv", "vlc"},
				Image: []string{"start"},
				Audio: []string{"mpv", "vlc"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:    "q",
				Down:    "j",
				Up:      "k",
				Tap:     " ",
				Hold:    "h",
				Open:    "o",
				Add:     "a",
				Search:  "/",
				Refresh: "r",
				Retry:   "R",
				Back:    "esc",
				Help:    "?",
			},
		},
		Log: LogConfig{
			Level: "OFF",
			Path:  filepath.Join(dataDir, "reels.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("playback", cfg.Playback)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("media", cfg.Media)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "reels")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REELS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decode over the defaults so a partially specified section keeps the
	// values it does not mention.
	config := *cfg
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	// Decoding a list onto a longer default list keeps the default's tail.
	if v.IsSet("playback.allowed_ratios") {
		config.Playback.AllowedRatios = v.GetStringSlice("playback.allowed_ratios")
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the playback section; the rest is forgiving.
func (c *Config) Validate() error {
	p := c.Playback
	if p.DoubleTapWindow <= 0 {
		return fmt.Errorf("playback.double_tap_window must be positive, got %s", p.DoubleTapWindow)
	}
	if p.LongPressThreshold <= 0 {
		return fmt.Errorf("playback.long_press_threshold must be positive, got %s", p.LongPressThreshold)
	}
	if p.MinDwell < 0 {
		return fmt.Errorf("playback.min_dwell must not be negative, got %s", p.MinDwell)
	}
	if p.MinVisibleFraction < 0 || p.MinVisibleFraction > 1 {
		return fmt.Errorf("playback.min_visible_fraction must be within [0,1], got %v", p.MinVisibleFraction)
	}
	if p.WindowSize < 1 {
		return fmt.Errorf("playback.window_size must be at least 1, got %d", p.WindowSize)
	}
	if _, err := c.Ratios(); err != nil {
		return err
	}
	if _, err := c.FallbackRatio(); err != nil {
		return err
	}
	return nil
}

// Ratios parses playback.allowed_ratios in their configured order.
func (c *Config) Ratios() ([]aspect.Ratio, error) {
	ratios, err := aspect.ParseRatios(c.Playback.AllowedRatios)
	if err != nil {
		return nil, fmt.Errorf("playback.allowed_ratios: %w", err)
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("playback.allowed_ratios: %w", aspect.ErrNoRatios)
	}
	return ratios, nil
}

// FallbackRatio parses playback.default_ratio.
func (c *Config) FallbackRatio() (aspect.Ratio, error) {
	r, err := aspect.ParseRatio(c.Playback.DefaultRatio)
	if err != nil {
		return aspect.Ratio{}, fmt.Errorf("playback.default_ratio: %w", err)
	}
	return r, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability
	playbackCfg := map[string]any{
		"double_tap_window":    config.Playback.DoubleTapWindow.String(),
		"long_press_threshold": config.Playback.LongPressThreshold.String(),
		"min_dwell":            config.Playback.MinDwell.String(),
		"min_visible_fraction": config.Playback.MinVisibleFraction,
		"allowed_ratios":       config.Playback.AllowedRatios,
		"default_ratio":        config.Playback.DefaultRatio,
		"loop":                 config.Playback.Loop,
		"start_muted":          config.Playback.StartMuted,
		"window_size":          config.Playback.WindowSize,
	}

	dbCfg := map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	feedCfg := map[string]any{
		"http_timeout":           config.Feed.HTTPTimeout.String(),
		"refresh_interval":       config.Feed.RefreshInterval.String(),
		"default_retry_after":    config.Feed.DefaultRetryAfter.String(),
		"user_agent":             config.Feed.UserAgent,
		"max_concurrent_refresh": config.Feed.MaxConcurrentRefresh,
	}

	v.Set("playback", playbackCfg)
	v.Set("database", dbCfg)
	v.Set("feed", feedCfg)
	v.Set("ui", config.UI)
	v.Set("media", config.Media)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
