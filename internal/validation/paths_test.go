package validation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathHandlerDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ph := NewSecurePathHandler()

	db, err := ph.DBPath("")
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if db != filepath.Join(home, ".reels", "reels.db") {
		t.Errorf("Unexpected db path %s", db)
	}
	if info, err := os.Stat(filepath.Dir(db)); err != nil || !info.IsDir() {
		t.Error("Expected data directory to be created")
	}

	cfg, err := ph.ConfigPath("")
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if cfg != filepath.Join(home, ".config", "reels", "config.toml") {
		t.Errorf("Unexpected config path %s", cfg)
	}
	if _, err := os.Stat(filepath.Dir(cfg)); !os.IsNotExist(err) {
		t.Error("Expected config directory not to be created")
	}

	idx, err := ph.IndexPath("")
	if err != nil {
		t.Fatalf("IndexPath: %v", err)
	}
	if idx != filepath.Join(home, ".reels", "index.bleve") {
		t.Errorf("Unexpected index path %s", idx)
	}
	if _, err := os.Stat(idx); !os.IsNotExist(err) {
		t.Error("Expected index directory to be left for bleve to create")
	}

	logPath, err := ph.LogPath("")
	if err != nil {
		t.Fatalf("LogPath: %v", err)
	}
	if logPath != filepath.Join(home, ".reels", "reels.log") {
		t.Errorf("Unexpected log path %s", logPath)
	}
}

func TestPathHandlerRejectsOutsideLocations(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ph := NewSecurePathHandler()

	if _, err := ph.DBPath("/etc/reels.db"); err == nil {
		t.Error("Expected db outside data dirs to be rejected")
	}
	if _, err := ph.IndexPath("~/.reels/../index"); err == nil {
		t.Error("Expected traversal to be rejected")
	}
}

func TestPermissivePathHandler(t *testing.T) {
	ph := NewPermissivePathHandler()
	dir := filepath.Join(t.TempDir(), "nested", "dir")

	db, err := ph.DBPath(filepath.Join(dir, "custom.db"))
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(db)); err != nil {
		t.Errorf("Expected parent directory to exist: %v", err)
	}

	ensured, err := ph.EnsureDirectory(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	if info, err := os.Stat(ensured); err != nil || !info.IsDir() {
		t.Error("Expected directory to be created")
	}
}
