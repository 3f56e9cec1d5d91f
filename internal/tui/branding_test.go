package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reels/internal/config"
)

func TestBanner(t *testing.T) {
	out := Banner("1.0.0-test")

	if !strings.Contains(out, "Short Video Feed") {
		t.Errorf("Expected banner to contain tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
	if strings.Contains(Banner("dev"), "dev") {
		t.Errorf("Expected dev builds to omit the version tag")
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage(" ")

	if !strings.Contains(result, "Press space to add your first source") {
		t.Errorf("Expected welcome message to name the add key, got: %s", result)
	}
	if !strings.Contains(result, LogoLines[0]) {
		t.Errorf("Expected welcome message to contain the logo, got: %s", result)
	}
}

func TestApplyTheme(t *testing.T) {
	defer ApplyTheme(config.UIColors{Primary: "#FF6B6B", Error: "#F87171"})

	ApplyTheme(config.UIColors{Primary: "#123456"})
	if PrimaryColor != lipgloss.Color("#123456") {
		t.Errorf("PrimaryColor = %v, want #123456", PrimaryColor)
	}
	if ErrorColor != lipgloss.Color("#F87171") {
		t.Errorf("empty entries must keep the current color, got %v", ErrorColor)
	}
	if LogoStyle.GetForeground() != PrimaryColor {
		t.Errorf("styles were not rebuilt")
	}
}
