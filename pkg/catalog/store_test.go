package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

const nestedPayload = `{
	"games": {
		"GameA": {
			"item_name_to_id": {"Sword": 1, "Shield": 2},
			"location_name_to_id": {"Cave": 100, "Tower": 101},
			"checksum": "abc"
		},
		"GameB": {
			"item_name_to_id": {"Bow": 7, "Arrow": 1}
		}
	}
}`

func TestIngestInvertsTables(t *testing.T) {
	s := NewStore()
	titles := s.Ingest(json.RawMessage(nestedPayload))

	if want := []string{"GameA", "GameB"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("Ingest titles = %v, want %v", titles, want)
	}
	if !s.Loaded() {
		t.Error("Loaded() = false after Ingest")
	}

	tests := []struct {
		got, want string
	}{
		{s.Item("GameA", 1), "Sword"},
		{s.Item("GameA", 2), "Shield"},
		{s.Item("GameB", 7), "Bow"},
		{s.Location("GameA", 100), "Cave"},
		{s.Location("GameA", 101), "Tower"},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d: got %q, want %q", i, tt.got, tt.want)
		}
	}
}

func TestResolvePlaceholders(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(nestedPayload))

	tests := []struct {
		name, got, want string
	}{
		{"unknown game item", s.Item("unknown-title", 42), "Item 42"},
		{"unknown id item", s.Item("GameA", 42), "Item 42"},
		{"unknown game location", s.Location("unknown-title", 42), "Location 42"},
		{"game without locations", s.Location("GameB", 100), "Location 100"},
		{"any game item", s.ItemAnyGame(42), "Item 42"},
		{"any game location", s.LocationAnyGame(42), "Location 42"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	empty := NewStore()
	if got := empty.Item("GameA", 5); got != "Item 5" {
		t.Errorf("empty store Item = %q, want %q", got, "Item 5")
	}
	if empty.Loaded() {
		t.Error("Loaded() = true before Ingest")
	}
}

func TestAnyGameUsesFirstSeenOrder(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(nestedPayload))

	// id 1 is in both GameA and GameB, GameA was seen first
	if got, want := s.ItemAnyGame(1), "Sword (GameA)"; got != want {
		t.Errorf("ItemAnyGame(1) = %q, want %q", got, want)
	}
	if got, want := s.ItemAnyGame(7), "Bow (GameB)"; got != want {
		t.Errorf("ItemAnyGame(7) = %q, want %q", got, want)
	}
	if got, want := s.LocationAnyGame(101), "Tower (GameA)"; got != want {
		t.Errorf("LocationAnyGame(101) = %q, want %q", got, want)
	}
}

func TestIngestTopLevelGames(t *testing.T) {
	s := NewStore()
	payload := `{
		"games": {"GameA": {"item_name_to_id": {"Nested Sword": 1}}},
		"GameA": {"item_name_to_id": {"Top Sword": 1}},
		"GameC": {"item_name_to_id": {"Lamp": 9}},
		"version": 3
	}`
	titles := s.Ingest(json.RawMessage(payload))

	if want := []string{"GameA", "GameC"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("Ingest titles = %v, want %v", titles, want)
	}
	if got := s.Item("GameA", 1); got != "Nested Sword" {
		t.Errorf("Item(GameA, 1) = %q, want nested entry to win", got)
	}
	if got := s.Item("GameC", 9); got != "Lamp" {
		t.Errorf("Item(GameC, 9) = %q, want Lamp", got)
	}
}

func TestIngestDuplicateIDLastWins(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(`{"games":{"G":{"item_name_to_id":{"First":3,"Second":3}}}}`))
	if got := s.Item("G", 3); got != "Second" {
		t.Errorf("Item(G, 3) = %q, want Second", got)
	}
}

func TestIngestMalformedTables(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(`{"games":{"G":{"item_name_to_id":"nope","location_name_to_id":{"Hall":"x","Gate":4}}}}`))

	if got := s.Item("G", 1); got != "Item 1" {
		t.Errorf("Item = %q, want placeholder", got)
	}
	if got := s.Location("G", 4); got != "Gate" {
		t.Errorf("Location(G, 4) = %q, want Gate", got)
	}

	// not even an object
	s.Ingest(json.RawMessage(`[1,2,3]`))
	if got := s.Location("G", 4); got != "Gate" {
		t.Errorf("Location after junk ingest = %q, want Gate", got)
	}
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(nestedPayload))
	first := []string{s.Item("GameA", 1), s.ItemAnyGame(7), s.Location("GameA", 100), s.LocationAnyGame(101)}
	games := s.Games()

	s.Ingest(json.RawMessage(nestedPayload))
	second := []string{s.Item("GameA", 1), s.ItemAnyGame(7), s.Location("GameA", 100), s.LocationAnyGame(101)}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolves changed after re-ingest: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(games, s.Games()) {
		t.Errorf("Games() changed after re-ingest: %v vs %v", games, s.Games())
	}
}

func TestIngestReplacesPerTitle(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(nestedPayload))
	s.Ingest(json.RawMessage(`{"games":{"GameA":{"item_name_to_id":{"Axe":1}}}}`))

	if got := s.Item("GameA", 2); got != "Item 2" {
		t.Errorf("Item(GameA, 2) = %q, want old table replaced", got)
	}
	if got := s.Item("GameA", 1); got != "Axe" {
		t.Errorf("Item(GameA, 1) = %q, want Axe", got)
	}
	if got := s.Item("GameB", 7); got != "Bow" {
		t.Errorf("Item(GameB, 7) = %q, want untouched GameB", got)
	}
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.Ingest(json.RawMessage(nestedPayload))
	s.Reset()
	if s.Loaded() || len(s.Games()) != 0 {
		t.Errorf("Reset left state: loaded=%v games=%v", s.Loaded(), s.Games())
	}
	if got := s.Item("GameA", 1); got != "Item 1" {
		t.Errorf("Item after Reset = %q, want placeholder", got)
	}
}
