// Package nutrition holds the small food database and the text analysis used
// to build a nutrition summary for a meal description.
package nutrition

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed foods.yaml
var defaultFoods []byte

// Food is one entry of the database, values are per serving
type Food struct {
	Name     string  `yaml:"name"`
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Fiber    float64 `yaml:"fiber"`
	Notes    string  `yaml:"notes"`
}

type foodFile struct {
	Foods []Food `yaml:"foods"`
}

// quantityPrefix matches a number in any script followed by optional
// whitespace, Unicode spaces included.
const quantityPrefix = `(\p{Nd}+)[\s\p{Z}\x{85}]*`

// DB is an ordered, read-only food database
type DB struct {
	foods    []Food
	index    map[string]int
	patterns []*regexp.Regexp
}

// Parse decodes a YAML food list. Names are lower-cased and must be unique.
func Parse(data []byte) (*DB, error) {
	var file foodFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse food database: %w", err)
	}
	if len(file.Foods) == 0 {
		return nil, fmt.Errorf("food database is empty")
	}

	db := &DB{
		foods:    make([]Food, 0, len(file.Foods)),
		index:    make(map[string]int, len(file.Foods)),
		patterns: make([]*regexp.Regexp, 0, len(file.Foods)),
	}
	for i, food := range file.Foods {
		food.Name = strings.ToLower(strings.TrimSpace(food.Name))
		if food.Name == "" {
			return nil, fmt.Errorf("food #%d has no name", i+1)
		}
		if _, dup := db.index[food.Name]; dup {
			return nil, fmt.Errorf("duplicate food %q", food.Name)
		}

		db.index[food.Name] = len(db.foods)
		db.foods = append(db.foods, food)
		db.patterns = append(db.patterns, regexp.MustCompile(quantityPrefix+regexp.QuoteMeta(food.Name)+`s?`))
	}
	return db, nil
}

var (
	defaultOnce sync.Once
	defaultDB   *DB
)

// Default returns the built-in database
func Default() *DB {
	defaultOnce.Do(func() {
		db, err := Parse(defaultFoods)
		if err != nil {
			panic(err)
		}
		defaultDB = db
	})
	return defaultDB
}

// Foods returns the entries in database order
func (db *DB) Foods() []Food {
	out := make([]Food, len(db.foods))
	copy(out, db.foods)
	return out
}

// Lookup finds a food by name, case-insensitively
func (db *DB) Lookup(name string) (Food, bool) {
	i, ok := db.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Food{}, false
	}
	return db.foods[i], true
}

// Len returns the number of foods
func (db *DB) Len() int {
	return len(db.foods)
}
