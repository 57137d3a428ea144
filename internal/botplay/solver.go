package botplay

import (
	"sort"
	"strings"

	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/scramble"
)

// Solver maps a scrambled word back to the catalog words it could be.
type Solver struct {
	byCategory map[string]map[string][]string
}

// NewSolver indexes every category of c by sorted-letter key.
func NewSolver(c *catalog.Catalog) *Solver {
	s := &Solver{byCategory: make(map[string]map[string][]string)}
	for _, cat := range c.Categories() {
		index := make(map[string][]string)
		seen := make(map[string]struct{})
		for _, w := range cat.Words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			k := scramble.Key(w)
			index[k] = append(index[k], w)
		}
		for k := range index {
			sort.Strings(index[k])
		}
		s.byCategory[cat.Name] = index
	}
	return s
}

// Candidates returns the words of category that scrambled could come from,
// narrowed to those starting with prefix when prefix is non-empty.
func (s *Solver) Candidates(category, scrambled, prefix string) []string {
	index, ok := s.byCategory[strings.ToLower(category)]
	if !ok {
		return nil
	}
	words := index[scramble.Key(strings.ToUpper(scrambled))]
	if prefix == "" {
		return append([]string(nil), words...)
	}
	prefix = strings.ToUpper(prefix)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}

// Categories lists the categories the solver knows.
func (s *Solver) Categories() []string {
	out := make([]string, 0, len(s.byCategory))
	for name := range s.byCategory {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
