// Package render turns assistant replies into styled terminal output.
package render

import "github.com/diogo/nutribuddy/internal/config"

// Options configures the markdown renderer.
type Options struct {
	// Width is the wrap column.
	Width int
	// Style is a glamour style name or a path to a JSON style file.
	Style            string
	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultWidth is used when no positive width is known
const DefaultWidth = 80

// DefaultOptions mirrors config.DefaultMarkdownConfig at the default width.
func DefaultOptions() Options {
	return FromMarkdownConfig(config.DefaultMarkdownConfig())
}

// FromMarkdownConfig builds Options from the markdown section of the user config
func FromMarkdownConfig(md config.MarkdownConfig) Options {
	opts := Options{
		Width:            DefaultWidth,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
	if opts.Style == "" {
		opts.Style = StyleDark
	}
	return opts
}

// WithWidth returns a copy using width; non-positive widths fall back to DefaultWidth.
func (o Options) WithWidth(width int) Options {
	if width <= 0 {
		width = DefaultWidth
	}
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}
