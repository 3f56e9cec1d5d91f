package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reels/internal/storage"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(versionCmd, nil) })

	// Version is "dev" unless set by the linker
	if !strings.Contains(out, "reels dev") {
		t.Errorf("Expected version output to contain 'reels dev', got: %s", out)
	}
	if !strings.Contains(out, "Short video feed") {
		t.Errorf("Expected version output to contain 'Short video feed', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/reels") {
		t.Errorf("Expected version output to contain 'github.com/pders01/reels', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "reels", "config.toml")

	out := captureStdout(t, func() { configGenCmd.Run(configGenCmd, nil) })

	if !strings.Contains(out, "Generated default configuration") {
		t.Errorf("Expected success message, got: %s", out)
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	require.NoError(t, err)
	for _, section := range []string{"[playback]", "[database]", "[feed]", "[keys]"} {
		assert.Contains(t, string(content), section)
	}
}

func TestRunFeedNeedsTerminal(t *testing.T) {
	// go test never runs with a terminal on both stdin and stdout.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	oldIn := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldIn }()

	assert.ErrorIs(t, runFeed(rootCmd, nil), errNotTerminal)
}

func TestRefreshLock(t *testing.T) {
	dir := t.TempDir()

	first, err := acquireRefreshLock(dir)
	require.NoError(t, err)

	_, err = acquireRefreshLock(dir)
	assert.ErrorIs(t, err, errRefreshRunning)

	require.NoError(t, first.Unlock())
	again, err := acquireRefreshLock(dir)
	require.NoError(t, err)
	again.Unlock()
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{-time.Second, "-"},
		{9 * time.Second, "0:09"},
		{14500 * time.Millisecond, "0:15"},
		{75 * time.Second, "1:15"},
		{12 * time.Minute, "12:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "hell…", truncate("hello world", 5))
	assert.Equal(t, "ünic…", truncate("ünicode text", 5))
}

func TestReelTable(t *testing.T) {
	sources := []*storage.Source{{ID: "src", Title: "Harbour Clips"}}
	reels := []*storage.Reel{
		{ID: "src:1", SourceID: "src", Title: "Storm rolling in", Author: "Ana", Duration: 75 * time.Second, Liked: true},
		{ID: "src:2", SourceID: "src", Caption: "untitled gulls", Seen: true},
	}

	out := reelTable(reels, sources, false)
	assert.Contains(t, out, "Storm rolling in")
	assert.Contains(t, out, "Harbour Clips")
	assert.Contains(t, out, "1:15")
	assert.Contains(t, out, "♥")
	assert.Contains(t, out, "untitled gulls", "caption stands in for a missing title")
	assert.Contains(t, out, "✓")

	liked := reelTable(reels, sources, true)
	assert.Contains(t, liked, "Storm rolling in")
	assert.NotContains(t, liked, "untitled gulls")
}

const cliFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
	<channel>
		<title>Pier Cam</title>
		<item>
			<title>Morning fog</title>
			<guid>fog</guid>
			<media:content url="https://cdn.pier.test/fog.mp4" type="video/mp4" width="1080" height="1920"/>
		</item>
	</channel>
</rss>`

func TestAddAndListCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, cliFeed)
	}))
	defer srv.Close()

	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetArgs(args)
		t.Cleanup(func() {
			rootCmd.SetOut(nil)
			rootCmd.SetArgs(nil)
			dbPath, permissiveSource, listLiked = "", false, false
		})
		err := rootCmd.Execute()
		return buf.String(), err
	}

	db := filepath.Join(home, "cli.db")

	_, err := run("--db", db, "add", srv.URL+"/feed.xml")
	require.Error(t, err, "loopback sources need --allow-private")

	out, err := run("--db", db, "add", "--allow-private", srv.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Pier Cam (1 reels)")

	out, err = run("--db", db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning fog")
	assert.Contains(t, out, "Pier Cam")
}
