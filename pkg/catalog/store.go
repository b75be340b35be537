// Package catalog keeps the per-game id→name tables delivered in DataPackage
// frames and resolves item and location ids against them.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

type gameTables struct {
	items     map[int64]string
	locations map[int64]string
}

// Store is safe for concurrent use; an Ingest is atomic with respect to resolves.
type Store struct {
	mu     sync.RWMutex
	games  map[string]*gameTables
	order  []string // first-seen order, drives the any-game scans
	loaded bool
}

func NewStore() *Store {
	return &Store{games: make(map[string]*gameTables)}
}

// ItemPlaceholder is the text used for an item id no table knows.
func ItemPlaceholder(id int64) string { return fmt.Sprintf("Item %d", id) }

// LocationPlaceholder is the text used for a location id no table knows.
func LocationPlaceholder(id int64) string { return fmt.Sprintf("Location %d", id) }

// Ingest loads a DataPackage payload. Games may sit under a "games" key, at
// the top level, or both; an entry under "games" wins over a top-level entry
// with the same title. Missing or malformed tables load as empty. It returns
// the titles loaded, in payload order.
func (s *Store) Ingest(payload json.RawMessage) []string {
	keys, top := objectEntries(payload)

	type entry struct {
		title string
		raw   json.RawMessage
	}
	var entries []entry
	nested := make(map[string]bool)

	if raw, ok := top["games"]; ok {
		gameKeys, games := objectEntries(raw)
		for _, title := range gameKeys {
			nested[title] = true
			entries = append(entries, entry{title, games[title]})
		}
	}
	for _, key := range keys {
		if key == "games" || nested[key] {
			continue
		}
		if !isObject(top[key]) {
			continue
		}
		entries = append(entries, entry{key, top[key]})
	}

	built := make([]*gameTables, len(entries))
	for i, e := range entries {
		built[i] = buildTables(e.raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	titles := make([]string, 0, len(entries))
	for i, e := range entries {
		if _, seen := s.games[e.title]; !seen {
			s.order = append(s.order, e.title)
		}
		s.games[e.title] = built[i]
		titles = append(titles, e.title)
	}
	s.loaded = true
	return titles
}

// Loaded reports whether any payload has been ingested.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Games returns the known titles in first-seen order.
func (s *Store) Games() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Reset drops every table.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = make(map[string]*gameTables)
	s.order = nil
	s.loaded = false
}

func (s *Store) Item(game string, id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[game]; ok {
		if name, ok := g.items[id]; ok {
			return name
		}
	}
	return ItemPlaceholder(id)
}

func (s *Store) Location(game string, id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[game]; ok {
		if name, ok := g.locations[id]; ok {
			return name
		}
	}
	return LocationPlaceholder(id)
}

// ItemAnyGame scans every game in first-seen order and returns the first hit
// as "<name> (<game>)".
func (s *Store) ItemAnyGame(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, title := range s.order {
		if name, ok := s.games[title].items[id]; ok {
			return fmt.Sprintf("%s (%s)", name, title)
		}
	}
	return ItemPlaceholder(id)
}

func (s *Store) LocationAnyGame(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, title := range s.order {
		if name, ok := s.games[title].locations[id]; ok {
			return fmt.Sprintf("%s (%s)", name, title)
		}
	}
	return LocationPlaceholder(id)
}

func buildTables(raw json.RawMessage) *gameTables {
	var game struct {
		Items     json.RawMessage `json:"item_name_to_id"`
		Locations json.RawMessage `json:"location_name_to_id"`
	}
	_ = json.Unmarshal(raw, &game)
	return &gameTables{
		items:     invert(game.Items),
		locations: invert(game.Locations),
	}
}

// invert turns a name→id object into id→name, walking names in payload order
// so a duplicated id keeps the last name.
func invert(raw json.RawMessage) map[int64]string {
	keys, values := objectEntries(raw)
	out := make(map[int64]string, len(keys))
	for _, name := range keys {
		var id int64
		if err := json.Unmarshal(values[name], &id); err != nil {
			continue
		}
		out[id] = name
	}
	return out
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// objectEntries returns the keys of a JSON object in document order along
// with their raw values. Anything that is not an object yields nothing.
func objectEntries(raw json.RawMessage) ([]string, map[string]json.RawMessage) {
	values := make(map[string]json.RawMessage)
	if !isObject(raw) {
		return nil, values
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, values
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys, values
		}
		key, ok := tok.(string)
		if !ok {
			return keys, values
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return keys, values
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = value
	}
	return keys, values
}
