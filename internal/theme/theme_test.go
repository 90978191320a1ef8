package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTheme(t *testing.T) {
	th := Default()
	if th.Board.Width != 500 || th.Board.DarkSquare != "#779952" || th.Board.LightSquare != "#edeed1" {
		t.Fatalf("unexpected board defaults: %+v", th.Board)
	}
	if th.AnimationDuration() != 300*time.Millisecond {
		t.Fatalf("animation = %v", th.AnimationDuration())
	}
	if !th.Board.ShowNotation || !th.Board.Draggable {
		t.Fatalf("notation and dragging are on by default")
	}
	if err := th.Validate(); err != nil {
		t.Fatalf("default theme invalid: %v", err)
	}
}

func TestLoadOverlaysPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.yaml")
	if err := os.WriteFile(path, []byte("board:\n  width: 640\n  draggable: false\nhighlights:\n  check: \"#ff0000\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	th, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if th.Board.Width != 640 || th.Board.Draggable {
		t.Fatalf("override not applied: %+v", th.Board)
	}
	if th.Board.DarkSquare != "#779952" || th.Highlights.LastMove != "rgba(255, 255, 0, 0.3)" {
		t.Fatalf("absent keys should keep defaults: %+v", th)
	}
	if th.Highlights.Check != "#ff0000" {
		t.Fatalf("check colour = %q", th.Highlights.Check)
	}
}

func TestLoadRejectsInvalidTheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("board:\n  dark_square: \"green-ish\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#779952", color.NRGBA{R: 0x77, G: 0x99, B: 0x52, A: 0xff}},
		{"#fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"rgba(255, 0, 0, 0.5)", color.NRGBA{R: 255, A: 128}},
		{"rgba(255,255,0,0.4)", color.NRGBA{R: 255, G: 255, A: 102}},
		{"rgb(1, 2, 3)", color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "#12", "rgba(1,2,3)", "rgb(300,0,0)", "rgba(0,0,0,2)", "blue"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) should fail", bad)
		}
	}
}
