package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("TRAVEL_DARK_MODE", "1")
	if !DetectTheme(false).IsDark {
		t.Fatalf("expected dark theme when TRAVEL_DARK_MODE=1")
	}

	t.Setenv("TRAVEL_DARK_MODE", "")
	if DetectTheme(false).IsDark {
		t.Fatalf("expected light theme when TRAVEL_DARK_MODE is unset")
	}
	if !DetectTheme(true).IsDark {
		t.Fatalf("expected forced dark theme")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme(false).IsDark {
		t.Fatalf("expected dark theme for a black background")
	}
}

func TestGlamourStyle(t *testing.T) {
	if got := LightTheme().GlamourStyle(); got != "light" {
		t.Errorf("light theme style = %q", got)
	}
	if got := DarkTheme().GlamourStyle(); got != "dark" {
		t.Errorf("dark theme style = %q", got)
	}
}
