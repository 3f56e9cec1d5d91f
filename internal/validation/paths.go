package validation

import (
	"fmt"
	"path/filepath"
)

// PathHandler resolves the on-disk locations reels uses, applying defaults
// for anything the user left empty.
type PathHandler struct {
	validator *FilePathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewFilePathValidator()}
}

// NewPermissivePathHandler is used for paths the user named explicitly on
// the command line.
func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissiveFilePathValidator()}
}

// DBPath returns the validated bbolt database path, creating its parent
// directory.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	if userPath == "" {
		userPath = filepath.Join(DataDir(), "reels.db")
	}
	return ph.fileWithParent(userPath)
}

// ConfigPath returns the validated config file path. The parent directory
// is not created; a missing config falls back to defaults.
func (ph *PathHandler) ConfigPath(userPath string) (string, error) {
	if userPath == "" {
		userPath = filepath.Join(ConfigDir(), "config.toml")
	}
	return ph.validator.ValidateFile(userPath)
}

// IndexPath returns the validated bleve index directory. Bleve creates the
// directory itself, so only the parent is ensured.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	if userPath == "" {
		userPath = filepath.Join(DataDir(), "index.bleve")
	}
	path, err := ph.validator.ValidateDirectory(userPath, false)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(path), true); err != nil {
		return "", fmt.Errorf("index parent: %w", err)
	}
	return path, nil
}

// LogPath returns the validated debug log path, creating its parent
// directory.
func (ph *PathHandler) LogPath(userPath string) (string, error) {
	if userPath == "" {
		userPath = filepath.Join(DataDir(), "reels.log")
	}
	return ph.fileWithParent(userPath)
}

// EnsureDirectory validates and creates path.
func (ph *PathHandler) EnsureDirectory(path string) (string, error) {
	return ph.validator.ValidateDirectory(path, true)
}

func (ph *PathHandler) fileWithParent(path string) (string, error) {
	validated, err := ph.validator.ValidateFile(path)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(validated), true); err != nil {
		return "", fmt.Errorf("parent directory: %w", err)
	}
	return validated, nil
}
