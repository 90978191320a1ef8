package theme

import (
	"embed"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFiles embed.FS

type Theme struct {
	Board      BoardStyle     `yaml:"board" json:"board"`
	Highlights HighlightStyle `yaml:"highlights" json:"highlights"`
	Pieces     PieceStyle     `yaml:"pieces" json:"pieces"`
	HUD        HUDStyle       `yaml:"hud" json:"hud"`
}

type BoardStyle struct {
	Width        int    `yaml:"width" json:"width"`
	LightSquare  string `yaml:"light_square" json:"lightSquare"`
	DarkSquare   string `yaml:"dark_square" json:"darkSquare"`
	BorderRadius int    `yaml:"border_radius" json:"borderRadius"`
	BoxShadow    string `yaml:"box_shadow" json:"boxShadow"`
	ShowNotation bool   `yaml:"show_notation" json:"showNotation"`
	Draggable    bool   `yaml:"draggable" json:"draggable"`
	AnimationMs  int    `yaml:"animation_ms" json:"animationMs"`
}

type HighlightStyle struct {
	LastMove string `yaml:"last_move" json:"lastMove"`
	Check    string `yaml:"check" json:"check"`
}

type PieceStyle struct {
	WhiteFill   string `yaml:"white_fill" json:"whiteFill"`
	WhiteStroke string `yaml:"white_stroke" json:"whiteStroke"`
	BlackFill   string `yaml:"black_fill" json:"blackFill"`
	BlackStroke string `yaml:"black_stroke" json:"blackStroke"`
}

type HUDStyle struct {
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
	Height     int    `yaml:"height" json:"height"`
}

// Default returns the embedded theme. It panics only if the embedded file is broken.
func Default() Theme {
	t, err := parseDefault()
	if err != nil {
		panic(err)
	}
	return t
}

func parseDefault() (Theme, error) {
	raw, err := fs.ReadFile(defaultFiles, "default.yaml")
	if err != nil {
		return Theme{}, fmt.Errorf("read embedded theme: %w", err)
	}
	var t Theme
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Theme{}, fmt.Errorf("parse embedded theme: %w", err)
	}
	return t, nil
}

// Load starts from the embedded theme and overlays keys present in path.
// An empty path returns the defaults.
func Load(path string) (Theme, error) {
	t, err := parseDefault()
	if err != nil {
		return Theme{}, err
	}
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Theme{}, fmt.Errorf("parse theme %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Theme{}, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}

func (t Theme) AnimationDuration() time.Duration {
	return time.Duration(t.Board.AnimationMs) * time.Millisecond
}

func (t Theme) Validate() error {
	if t.Board.Width < 64 {
		return fmt.Errorf("board.width must be at least 64, got %d", t.Board.Width)
	}
	if t.Board.AnimationMs < 0 {
		return errors.New("board.animation_ms must not be negative")
	}
	for name, v := range map[string]string{
		"board.light_square":   t.Board.LightSquare,
		"board.dark_square":    t.Board.DarkSquare,
		"highlights.last_move": t.Highlights.LastMove,
		"highlights.check":     t.Highlights.Check,
		"pieces.white_fill":    t.Pieces.WhiteFill,
		"pieces.black_fill":    t.Pieces.BlackFill,
	} {
		if _, err := ParseColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

var ErrBadColor = errors.New("theme: unsupported colour")

// ParseColor understands #rgb, #rrggbb, rgb(r, g, b) and rgba(r, g, b, a) with a in [0,1].
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgba("):len(s)-1], true)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgb("):len(s)-1], false)
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func parseFunc(body string, withAlpha bool) (color.NRGBA, error) {
	parts := strings.Split(body, ",")
	want := 3
	if withAlpha {
		want = 4
	}
	if len(parts) != want {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
		}
		ch[i] = uint8(n)
	}
	alpha := uint8(0xff)
	if withAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

// ColorOr parses s and returns fallback when it cannot be read.
func ColorOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}
