package services

import (
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/pandeptwidyaop/sndctl/internal/models"
)

// macroIndex implements fuzzy.Source over lowercased search text.
type macroIndex struct {
	macros []models.Macro
	text   []string
}

func newMacroIndex(macros []models.Macro) *macroIndex {
	idx := &macroIndex{macros: macros, text: make([]string, len(macros))}
	for i, m := range macros {
		idx.text[i] = strings.ToLower(strings.Join([]string{m.Name, m.Description, m.Category}, " "))
	}
	return idx
}

func (idx *macroIndex) String(i int) string { return idx.text[i] }

func (idx *macroIndex) Len() int { return len(idx.macros) }

// Search ranks macros by fuzzy match of query against name, description and
// category. An empty query returns the full list.
func (s *MacroService) Search(query string) []models.Macro {
	macros := s.List()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return macros
	}

	matches := fuzzy.FindFrom(query, newMacroIndex(macros))
	out := make([]models.Macro, 0, len(matches))
	for _, match := range matches {
		out = append(out, macros[match.Index])
	}
	return out
}

// Suggest returns up to limit stored names close to name, best first.
func (s *MacroService) Suggest(name string, limit int) []string {
	s.mu.RLock()
	names := make([]string, len(s.state.macros))
	for i, m := range s.state.macros {
		names[i] = m.Name
	}
	s.mu.RUnlock()

	if name == "" || limit <= 0 {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] && len(out) < limit {
			seen[n] = true
			out = append(out, n)
		}
	}

	ranks := fuzzysearch.RankFindFold(name, names)
	sort.Sort(ranks)
	for _, r := range ranks {
		add(r.Target)
	}

	// Typos do not fuzzy-match, so fall back to edit distance.
	maxDistance := len(name)/3 + 1
	type candidate struct {
		name     string
		distance int
	}
	var nearby []candidate
	lower := strings.ToLower(name)
	for _, n := range names {
		if d := fuzzysearch.LevenshteinDistance(lower, strings.ToLower(n)); d <= maxDistance {
			nearby = append(nearby, candidate{n, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })
	for _, c := range nearby {
		add(c.name)
	}
	return out
}
