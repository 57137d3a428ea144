// Package catalog holds the static table of categories and their candidate words.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Category is a named, ordered list of candidate words.
type Category struct {
	Name  string   `json:"name"`
	Words []string `json:"-"`
	Size  int      `json:"size"`
}

// Catalog maps category names to word lists. It is read-only once built and
// therefore safe for concurrent use.
type Catalog struct {
	words map[string][]string
}

// New builds a Catalog from raw category lists.
// Category names are lowercased, words are trimmed and uppercased.
// A word containing anything other than letters is rejected.
func New(raw map[string][]string) (*Catalog, error) {
	c := &Catalog{words: make(map[string][]string, len(raw))}
	for name, list := range raw {
		key := normalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty category name", ErrInvalidWord)
		}
		words := make([]string, 0, len(list))
		for _, w := range list {
			norm := strings.ToUpper(strings.TrimSpace(w))
			if !isLetters(norm) {
				return nil, fmt.Errorf("%w: %q in category %q", ErrInvalidWord, w, key)
			}
			words = append(words, norm)
		}
		c.words[key] = append(c.words[key], words...)
	}
	return c, nil
}

// WordsFor returns a copy of the word list for category.
// An absent category and a category with no words both yield ErrUnknownCategory.
func (c *Catalog) WordsFor(category string) ([]string, error) {
	list, ok := c.words[normalizeName(category)]
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// Has reports whether category is playable.
func (c *Catalog) Has(category string) bool {
	return len(c.words[normalizeName(category)]) > 0
}

// Categories lists the playable categories sorted by name.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.words))
	for name, list := range c.words {
		if len(list) == 0 {
			continue
		}
		words := make([]string, len(list))
		copy(words, list)
		out = append(out, Category{Name: name, Words: words, Size: len(words)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of playable categories.
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.words {
		if len(list) > 0 {
			n++
		}
	}
	return n
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
