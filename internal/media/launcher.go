package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/debuglog"
)

// Launcher opens a reel in an external player.
type Launcher struct {
	// players maps a media type to the command that opens it. Types with no
	// installed player use defaultOpener.
	players       map[Type]string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
	start         func(*exec.Cmd) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		debuglog.Warnf("player definitions unavailable: %v", err)
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media type table unavailable: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = detector.GetDefaultOpener()
	}

	var players config.MediaPlayers
	switch runtime.GOOS {
	case "linux":
		players = cfg.Media.Linux
	case "windows":
		players = cfg.Media.Windows
	default:
		players = cfg.Media.Darwin
	}

	l := &Launcher{
		players:       make(map[Type]string, 3),
		defaultOpener: defaultOpener,
		registry:      registry,
		detector:      detector,
		start:         startDetached,
	}
	for typ, candidates := range map[Type][]string{
		TypeVideo: players.Video,
		TypeImage: players.Image,
		TypeAudio: players.Audio,
	} {
		if found := findCommand(candidates...); found != "" {
			l.players[typ] = found
		}
	}
	return l
}

// Detector exposes the launcher's media type table.
func (l *Launcher) Detector() *TypeDetector { return l.detector }

// playerFor returns the command for typ, falling back to the opener.
func (l *Launcher) playerFor(typ Type) string {
	if p := l.players[typ]; p != "" {
		return p
	}
	if l.defaultOpener != "" {
		return l.defaultOpener
	}
	return l.detector.GetDefaultOpener()
}

// Command resolves the command Open would run for url without starting it.
func (l *Launcher) Command(url string) (*exec.Cmd, error) {
	mediaType := l.detector.DetectType(url)
	playerName := l.playerFor(mediaType)
	if playerName == "" {
		return nil, errors.New("no application found to open URL")
	}

	cmd, err := l.registry.GetCommand(playerName, mediaType, url)
	if err != nil {
		debuglog.Debugf("no registry entry for %s: %v", playerName, err)
		cmd = exec.Command(playerName, url)
	}
	return cmd, nil
}

func (l *Launcher) Open(url string) error {
	cmd, err := l.Command(url)
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return nil
}

// startDetached runs GUI players in the background and reaps them.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
