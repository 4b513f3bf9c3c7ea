// Package icon renders the status symbols shown beside playback and command output.
//
// The icons.variant setting picks one rendering for every symbol: emoji, nerd-font
// glyphs, plain text, kaomoji or colored squares.
package icon

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/key"
	"github.com/spf13/viper"
)

// Variant is one rendering style of the registry.
type Variant string

const (
	Emoji   Variant = "emoji"
	Nerd    Variant = "nerd"
	Plain   Variant = "plain"
	Kaomoji Variant = "kaomoji"
	Squares Variant = "squares"
)

var variants = []Variant{Emoji, Nerd, Plain, Kaomoji, Squares}

// AvailableVariants lists the values icons.variant accepts.
func AvailableVariants() []string {
	return lo.Map(variants, func(v Variant, _ int) string {
		return string(v)
	})
}

// Current returns the configured variant, or None when the setting names no known variant.
func Current() mo.Option[Variant] {
	v := Variant(viper.GetString(key.IconsVariant))
	if lo.Contains(variants, v) {
		return mo.Some(v)
	}
	return mo.None[Variant]()
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

func (d *iconDef) render(v Variant) string {
	switch v {
	case Emoji:
		return d.emoji
	case Nerd:
		return d.nerd
	case Kaomoji:
		return d.kaomoji
	case Squares:
		return d.squares
	default:
		return d.plain
	}
}

// Get renders i in the configured variant. Unknown icons and variants render as "".
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}

	v, ok := Current().Get()
	if !ok {
		return ""
	}
	return d.render(v)
}
