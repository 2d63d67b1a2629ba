package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"unicode/utf8"

	"github.com/pandeptwidyaop/sndctl/internal/macro"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/storage"
	"github.com/pandeptwidyaop/sndctl/internal/validation"
)

// macroState is an immutable snapshot of the collection. Mutations build a
// new state and swap it in only after the store accepted the write.
type macroState struct {
	index  map[string]int
	macros []models.Macro
	raw    []byte
}

func newMacroState(macros []models.Macro, raw []byte) *macroState {
	index := make(map[string]int, len(macros))
	for i, m := range macros {
		index[m.Name] = i
	}
	return &macroState{index: index, macros: macros, raw: raw}
}

// MacroService owns the macro collection and its backing store.
type MacroService struct {
	store storage.Store
	state *macroState
	mu    sync.RWMutex
}

// NewMacroService loads the collection from store.
func NewMacroService(store storage.Store) (*MacroService, error) {
	s := &MacroService{store: store}
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = state
	log.Printf("[Macro] Loaded %d macros from %s", len(state.macros), store.Location())
	return s, nil
}

func (s *MacroService) load() (*macroState, error) {
	raw, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to read macros: %w", err)
	}
	macros, err := macro.Parse(string(raw))
	if err != nil {
		return nil, err
	}
	return newMacroState(macros, raw), nil
}

// List returns every macro in document order.
func (s *MacroService) List() []models.Macro {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Macro, len(s.state.macros))
	for i, m := range s.state.macros {
		out[i] = m.Clone()
	}
	return out
}

// Get returns the macro called name.
func (s *MacroService) Get(name string) (models.Macro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.state.index[name]
	if !ok {
		return models.Macro{}, macro.ErrNotFound
	}
	return s.state.macros[i].Clone(), nil
}

// Exists reports whether a macro called name is stored.
func (s *MacroService) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.index[name]
	return ok
}

// Upsert inserts m or replaces the macro with the same name in place.
func (s *MacroService) Upsert(m models.Macro) (models.Macro, error) {
	normalized, err := macro.Normalize(m)
	if err != nil {
		return models.Macro{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	macros := upsertInto(s.state.macros, s.state.index, normalized)
	if err := s.commit(macros); err != nil {
		return models.Macro{}, err
	}
	log.Printf("[Macro] Saved %s", normalized.Name)
	return normalized.Clone(), nil
}

// Delete removes the macro called name. It reports false if there was none.
func (s *MacroService) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.state.index[name]
	if !ok {
		return false, nil
	}

	macros := make([]models.Macro, 0, len(s.state.macros)-1)
	macros = append(macros, s.state.macros[:i]...)
	macros = append(macros, s.state.macros[i+1:]...)
	if err := s.commit(macros); err != nil {
		return false, err
	}
	log.Printf("[Macro] Deleted %s", name)
	return true, nil
}

// Duplicate copies the macro called name under the first free name of the
// form name_2, name_3, ... and appends it to the collection.
func (s *MacroService) Duplicate(name string) (models.Macro, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.state.index[name]
	if !ok {
		return models.Macro{}, macro.ErrNotFound
	}

	clone := s.state.macros[i].Clone()
	clone.Name = nextFreeName(name, s.state.index)
	if err := validation.ValidateName(clone.Name); err != nil {
		return models.Macro{}, fmt.Errorf("%w: duplicate name %q: %v", macro.ErrValidation, clone.Name, err)
	}

	macros := make([]models.Macro, 0, len(s.state.macros)+1)
	macros = append(macros, s.state.macros...)
	macros = append(macros, clone)
	if err := s.commit(macros); err != nil {
		return models.Macro{}, err
	}
	log.Printf("[Macro] Duplicated %s as %s", name, clone.Name)
	return clone.Clone(), nil
}

// nextFreeName shortens the base name when needed so the suffixed name still
// fits validation.MaxNameLength.
func nextFreeName(name string, taken map[string]int) string {
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate := truncateName(name, validation.MaxNameLength-len(suffix)) + suffix
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

// truncateName cuts name to at most max bytes on a rune boundary.
func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// Reload discards the in-memory collection and re-reads the store. On a
// read or parse failure the current collection is kept.
func (s *MacroService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		log.Printf("[Macro] Reload failed: %v", err)
		return err
	}
	s.state = state
	log.Printf("[Macro] Reloaded %d macros", len(state.macros))
	return nil
}

// RawContent returns the stored document exactly as persisted.
func (s *MacroService) RawContent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return string(s.state.raw)
}

// Import parses content and either merges it into the collection or replaces
// the collection with it. A replace import persists content verbatim. On any
// failure the collection is unchanged.
func (s *MacroService) Import(content string, merge bool) (models.ImportOutcome, error) {
	parsed, err := macro.Parse(content)
	if err != nil {
		return models.ImportOutcome{Message: fmt.Sprintf("Import failed: %v", err)}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if merge {
		macros := s.state.macros
		for _, m := range parsed {
			macros = upsertInto(macros, newMacroState(macros, nil).index, m)
		}
		if err := s.commit(macros); err != nil {
			return models.ImportOutcome{Message: fmt.Sprintf("Import failed: %v", err)}, err
		}
	} else {
		raw := []byte(content)
		if err := s.store.Save(raw); err != nil {
			return models.ImportOutcome{Message: fmt.Sprintf("Import failed: %v", err)}, err
		}
		s.state = newMacroState(parsed, raw)
	}

	mode := "replaced"
	if merge {
		mode = "merged"
	}
	log.Printf("[Macro] Imported %d macros (%s)", len(parsed), mode)

	return models.ImportOutcome{
		Success:       true,
		Message:       fmt.Sprintf("Imported %d macro(s) (%s)", len(parsed), mode),
		ImportedCount: len(parsed),
	}, nil
}

// Info describes the backing store.
func (s *MacroService) Info() models.MacroFileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.MacroFileInfo{
		Location: s.store.Location(),
		Storage:  s.store.Kind(),
		Count:    len(s.state.macros),
		Size:     len(s.state.raw),
	}
}

// Favorites returns the macros flagged as favourite, in document order.
func (s *MacroService) Favorites() []models.Macro {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Macro, 0)
	for _, m := range s.state.macros {
		if m.Favorite {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Watch reloads the collection whenever the macro file changes on disk.
// Only file stores are watched; Watch returns immediately for others.
func (s *MacroService) Watch(ctx context.Context) error {
	if s.store.Kind() != "file" {
		return nil
	}
	log.Printf("[Macro] Watching %s for changes", s.store.Location())
	return storage.Watch(ctx, s.store.Location(), storage.DefaultDebounce, func() {
		if _, err := s.reloadIfChanged(); err != nil {
			log.Printf("[Macro] Keeping previous macros after change to %s", s.store.Location())
		}
	})
}

// reloadIfChanged re-reads the store and swaps the collection in when the
// content differs from what was last loaded or written. Our own writes read
// back unchanged and are skipped. It reports whether a reload happened.
func (s *MacroService) reloadIfChanged() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Load()
	if err != nil {
		log.Printf("[Macro] Reload failed: %v", err)
		return false, fmt.Errorf("failed to read macros: %w", err)
	}
	if bytes.Equal(raw, s.state.raw) {
		return false, nil
	}
	macros, err := macro.Parse(string(raw))
	if err != nil {
		log.Printf("[Macro] Reload failed: %v", err)
		return false, err
	}
	s.state = newMacroState(macros, raw)
	log.Printf("[Macro] Reloaded %d macros", len(macros))
	return true, nil
}

// commit persists macros in canonical form and swaps the new state in.
// Callers hold s.mu.
func (s *MacroService) commit(macros []models.Macro) error {
	raw := []byte(macro.Format(macros))
	if err := s.store.Save(raw); err != nil {
		log.Printf("[Macro] Failed to write %s: %v", s.store.Location(), err)
		return fmt.Errorf("failed to save macros: %w", err)
	}
	s.state = newMacroState(macros, raw)
	return nil
}

// upsertInto returns a new slice with m replacing the entry of the same name
// or appended. The input slice is never modified.
func upsertInto(macros []models.Macro, index map[string]int, m models.Macro) []models.Macro {
	out := make([]models.Macro, len(macros), len(macros)+1)
	copy(out, macros)
	if i, ok := index[m.Name]; ok {
		out[i] = m
		return out
	}
	return append(out, m)
}

