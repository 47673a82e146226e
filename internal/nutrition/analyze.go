package nutrition

import (
	"strconv"
	"strings"
	"unicode"
)

// Item is a food detected in a meal description
type Item struct {
	Food     Food
	Quantity int
}

// Analyze detects known foods in text. Foods are reported in database order.
// A food counts when its name occurs anywhere in the lower-cased text; the
// quantity is the first number written right before the name (plural "s"
// allowed), or 1.
func (db *DB) Analyze(text string) []Item {
	lower := strings.ToLower(text)

	var items []Item
	for i, food := range db.foods {
		if !strings.Contains(lower, food.Name) {
			continue
		}

		quantity := 1
		if m := db.patterns[i].FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(asciiDigits(m[1])); err == nil {
				quantity = n
			}
		}
		items = append(items, Item{Food: food, Quantity: quantity})
	}
	return items
}

// asciiDigits rewrites decimal digits of any script as ASCII digits. Unicode
// lays each script's digits out as consecutive runs of zero to nine.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !unicode.IsDigit(r) {
			return r
		}
		start := r
		for unicode.IsDigit(start - 1) {
			start--
		}
		return '0' + (r-start)%10
	}, s)
}

// Analyze runs the built-in database over text
func Analyze(text string) []Item {
	return Default().Analyze(text)
}
