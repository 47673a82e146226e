package chat

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Apples provide fiber.", "Apples provide fiber."},
		{"keeps newlines and tabs", "a\n\tb", "a\n\tb"},
		{"normalizes crlf", "a\r\nb", "a\nb"},
		{"strips sgr", "\x1b[1;31mbold red\x1b[0m", "bold red"},
		{"strips osc hyperlink", "\x1b]8;;http://evil\x07click\x1b]8;;\x07", "click"},
		{"drops bell and nul", "ding\a\x00", "ding"},
		{"keeps markup as text", "<b>bold</b>", "<b>bold</b>"},
		{"keeps unicode", "Dal 🍲 — 9 g", "Dal 🍲 — 9 g"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
