package render

import (
	"os"

	"github.com/diogo/nutribuddy/internal/config"
)

// EnvStyle overrides the configured markdown style
const EnvStyle = "GLAMOUR_STYLE"

// LoadOptions reads the markdown settings from the user config and applies
// GLAMOUR_STYLE on top. A config that cannot be read yields the defaults.
func LoadOptions(width int) Options {
	md := config.DefaultMarkdownConfig()
	if cfg, err := config.LoadConfig(); err == nil {
		md = cfg.Markdown
	}
	return withEnv(FromMarkdownConfig(md)).WithWidth(width)
}

func withEnv(opts Options) Options {
	if style := os.Getenv(EnvStyle); style != "" {
		opts.Style = style
	}
	return opts
}
