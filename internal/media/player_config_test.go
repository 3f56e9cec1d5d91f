package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(goos string) *PlayerRegistry {
	return &PlayerRegistry{
		goos: goos,
		players: map[string]PlayerDefinition{
			"mpv": {
				Description: "Test player",
				Platforms:   []string{"darwin", "linux", "windows"},
				Video:       &MediaTypeConfig{Args: []string{"--no-terminal"}},
				Audio:       &MediaTypeConfig{Args: []string{"--no-video"}},
			},
			"vlc": {
				Description: "VLC player",
				Platforms:   []string{"darwin", "linux"},
				Video: &MediaTypeConfig{
					Args:       []string{"--intf", "dummy"},
					ArgsDarwin: []string{"--intf", "macosx", "--loop"},
				},
			},
		},
	}
}

func TestPlayerRegistry_GetCommand(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		playerName string
		mediaType  Type
		wantErr    bool
		wantArgs   []string
	}{
		{name: "mpv with video", goos: "linux", playerName: "mpv", mediaType: TypeVideo, wantArgs: []string{"--no-terminal"}},
		{name: "mpv with audio", goos: "linux", playerName: "mpv", mediaType: TypeAudio, wantArgs: []string{"--no-video"}},
		{name: "mpv with unsupported media type", goos: "linux", playerName: "mpv", mediaType: TypeImage, wantErr: true},
		{name: "unknown player", goos: "linux", playerName: "unknownplayer", mediaType: TypeVideo, wantArgs: nil},
		{name: "vlc generic args", goos: "linux", playerName: "vlc", mediaType: TypeVideo, wantArgs: []string{"--intf", "dummy"}},
		{name: "vlc darwin args", goos: "darwin", playerName: "vlc", mediaType: TypeVideo, wantArgs: []string{"--intf", "macosx", "--loop"}},
		{name: "vlc unsupported platform", goos: "windows", playerName: "vlc", mediaType: TypeVideo, wantErr: true},
	}

	const url = "http://example.com/video.mp4"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := testRegistry(tt.goos).GetCommand(tt.playerName, tt.mediaType, url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := append(append([]string{tt.playerName}, tt.wantArgs...), url)
			assert.Equal(t, want, cmd.Args)
		})
	}
}

func TestPlayerRegistry_GetCommandDoesNotAliasArgs(t *testing.T) {
	r := testRegistry("linux")
	_, err := r.GetCommand("mpv", TypeVideo, "a")
	require.NoError(t, err)
	_, err = r.GetCommand("mpv", TypeVideo, "b")
	require.NoError(t, err)

	def, ok := r.Definition("mpv")
	require.True(t, ok)
	assert.Equal(t, []string{"--no-terminal"}, def.Video.Args)
}

func TestPlayerRegistry_FindAvailablePlayer(t *testing.T) {
	r := testRegistry("linux")
	assert.Equal(t, "sh", r.FindAvailablePlayer([]string{"nonexistent-xyz", "sh"}))
	assert.Empty(t, r.FindAvailablePlayer([]string{"nonexistent-xyz"}))
	assert.False(t, r.IsPlayerAvailable("nonexistent-xyz"))
}

func TestNewPlayerRegistry_EmbeddedDefinitions(t *testing.T) {
	r, err := NewPlayerRegistry(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	def, ok := r.Definition("mpv")
	require.True(t, ok)
	require.NotNil(t, def.Video)
	assert.Contains(t, def.Video.Args, "--loop-file=inf")
}

func TestNewPlayerRegistry_UserOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.toml")
	content := `
[players.mpv]
description = "custom mpv"
platforms = ["darwin", "linux", "windows"]
[players.mpv.video]
args = ["--fs"]

[players.myplayer]
description = "custom"
platforms = ["linux"]
[players.myplayer.video]
args = ["-x"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := NewPlayerRegistry(path)
	require.NoError(t, err)

	def, ok := r.Definition("mpv")
	require.True(t, ok)
	assert.Equal(t, "custom mpv", def.Description)
	assert.Equal(t, []string{"--fs"}, def.Video.Args)

	_, ok = r.Definition("myplayer")
	assert.True(t, ok)
	_, ok = r.Definition("vlc")
	assert.True(t, ok, "built-in entries survive an override file")
}
