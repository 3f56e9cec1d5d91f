package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition defines how a media player should be invoked
type PlayerDefinition struct {
	Description string           `toml:"description"`
	Platforms   []string         `toml:"platforms"`
	Video       *MediaTypeConfig `toml:"video,omitempty"`
	Audio       *MediaTypeConfig `toml:"audio,omitempty"`
	Image       *MediaTypeConfig `toml:"image,omitempty"`
}

// MediaTypeConfig holds configuration for a specific media type
type MediaTypeConfig struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

// PlayersConfig holds all player definitions
type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

// PlayerRegistry manages player definitions
type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry creates a registry from the embedded TOML, overlaid with
// any user definitions found in userPaths.
func NewPlayerRegistry(userPaths ...string) (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(playersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}

	registry := &PlayerRegistry{
		players: config.Players,
		goos:    runtime.GOOS,
	}
	if registry.players == nil {
		registry.players = make(map[string]PlayerDefinition)
	}

	if len(userPaths) == 0 {
		userPaths = DefaultUserPlayerPaths()
	}
	registry.loadUserConfig(userPaths)

	return registry, nil
}

// DefaultUserPlayerPaths lists where user player definitions are looked up.
func DefaultUserPlayerPaths() []string {
	paths := []string{"./players.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "reels", "players.toml")}, paths...)
	}
	return paths
}

func (r *PlayerRegistry) loadUserConfig(paths []string) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var userConfig PlayersConfig
		if err := toml.Unmarshal(data, &userConfig); err != nil {
			continue
		}
		// User definitions override built-in ones
		for name, def := range userConfig.Players {
			r.players[name] = def
		}
	}
}

// Definition returns the definition registered under name.
func (r *PlayerRegistry) Definition(name string) (PlayerDefinition, bool) {
	def, ok := r.players[name]
	return def, ok
}

// GetCommand builds the command for a specific player and media type
func (r *PlayerRegistry) GetCommand(playerName string, mediaType Type, url string) (*exec.Cmd, error) {
	player, exists := r.players[playerName]
	if !exists {
		// Unknown players are run with the URL as their only argument
		return exec.Command(playerName, url), nil
	}

	supportsPlatform := false
	for _, p := range player.Platforms {
		if p == r.goos {
			supportsPlatform = true
			break
		}
	}
	if !supportsPlatform {
		return nil, fmt.Errorf("%s not supported on %s", playerName, r.goos)
	}

	var config *MediaTypeConfig
	switch mediaType {
	case TypeVideo:
		config = player.Video
	case TypeAudio:
		config = player.Audio
	case TypeImage:
		config = player.Image
	}

	if config == nil {
		return nil, fmt.Errorf("%s doesn't support %s", playerName, mediaType)
	}

	args := r.getArgs(config)
	args = append(append([]string(nil), args...), url)

	return exec.Command(playerName, args...), nil
}

// getArgs returns the appropriate args for the current platform
func (r *PlayerRegistry) getArgs(config *MediaTypeConfig) []string {
	if config == nil {
		return nil
	}

	switch r.goos {
	case "darwin":
		if len(config.ArgsDarwin) > 0 {
			return config.ArgsDarwin
		}
	case "linux":
		if len(config.ArgsLinux) > 0 {
			return config.ArgsLinux
		}
	case "windows":
		if len(config.ArgsWindows) > 0 {
			return config.ArgsWindows
		}
	}

	return config.Args
}

// IsPlayerAvailable checks if a player is installed
func (r *PlayerRegistry) IsPlayerAvailable(playerName string) bool {
	_, err := exec.LookPath(playerName)
	return err == nil
}

// FindAvailablePlayer finds the first available player from a list
func (r *PlayerRegistry) FindAvailablePlayer(players []string) string {
	for _, player := range players {
		if r.IsPlayerAvailable(player) {
			return player
		}
	}
	return ""
}
