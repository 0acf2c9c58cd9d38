// Package config holds the render configuration for ma.
//
// This is intentionally small: a maximum output width, a glyph set, and
// the autonumber default. There is no configuration file — every field
// is set from CLI flags.
package config

import "fmt"

// GlyphSet selects between Unicode box-drawing glyphs and a plain-ASCII
// fallback for arrowheads and line segments.
type GlyphSet string

const (
	// GlyphSetUnicode draws with box-drawing characters and Unicode
	// arrowheads (▶ ◀ ▲ ▼). This is the default.
	GlyphSetUnicode GlyphSet = "unicode"

	// GlyphSetASCII draws lines, box borders, and arrowheads with plain
	// ASCII (-, |, +, >, <, ^, v). The corner and inner decorations of
	// non-rectangular flowchart shapes and the sequence-diagram destroy
	// mark stay Unicode in this set too.
	GlyphSetASCII GlyphSet = "ascii"
)

// Config is the complete set of recognized render options.
type Config struct {
	// MaxWidth bounds output width in display columns. Nil means
	// unbounded.
	MaxWidth *int

	// GlyphSet selects the glyph table used by the rasterizer.
	GlyphSet GlyphSet

	// AutonumberDefault is the autonumbering state sequence diagrams
	// start in, absent an explicit "autonumber" directive. Always off;
	// no CLI flag toggles it, since the directive itself is the only
	// way to enable autonumbering (§4.3).
	AutonumberDefault bool
}

// Default returns the configuration used when no flags are given:
// unbounded width, Unicode glyphs, autonumbering off.
func Default() Config {
	return Config{
		MaxWidth:          nil,
		GlyphSet:          GlyphSetUnicode,
		AutonumberDefault: false,
	}
}

// WithMaxWidth returns a copy of c with MaxWidth set to width. Width
// must be a positive number of columns.
func (c Config) WithMaxWidth(width int) (Config, error) {
	if width <= 0 {
		return c, fmt.Errorf("width must be a positive integer, got %d", width)
	}
	c.MaxWidth = &width
	return c, nil
}

// WithGlyphSet returns a copy of c with GlyphSet set, validating name.
func (c Config) WithGlyphSet(name string) (Config, error) {
	switch GlyphSet(name) {
	case GlyphSetUnicode, GlyphSetASCII:
		c.GlyphSet = GlyphSet(name)
		return c, nil
	default:
		return c, fmt.Errorf("unknown glyph set %q; must be %q or %q", name, GlyphSetUnicode, GlyphSetASCII)
	}
}

// HasMaxWidth reports whether a width cap is configured.
func (c Config) HasMaxWidth() bool {
	return c.MaxWidth != nil
}

// MaxWidthOr returns the configured max width, or fallback when unset.
func (c Config) MaxWidthOr(fallback int) int {
	if c.MaxWidth == nil {
		return fallback
	}
	return *c.MaxWidth
}
