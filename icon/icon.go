// Package icon renders the status and control symbols of the player in the
// variant chosen by icons.variant.
package icon

import (
	"github.com/anisan-cli/anistream/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants lists the accepted icons.variant values.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// iconDef holds one symbol in every variant.
type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

// glyph returns the symbol for variant. Unknown variants render as plain text,
// which every terminal can display.
func (d *iconDef) glyph(variant string) string {
	switch variant {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	}
	return d.plain
}

// Get renders i in the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.glyph(viper.GetString(key.IconsVariant))
}
