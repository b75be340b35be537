// Package roster maps connection slots to player names and game titles.
package roster

import (
	"strconv"
	"sync"

	"github.com/apreader/client/pkg/protocol"
)

// Roster is safe for concurrent use.
type Roster struct {
	mu     sync.RWMutex
	names  map[int]string
	slots  map[string]int
	titles map[int]string
}

func New() *Roster {
	return &Roster{
		names:  make(map[int]string),
		slots:  make(map[string]int),
		titles: make(map[int]string),
	}
}

// UpdatePlayers records both directions of slot↔name; a repeated slot overwrites.
func (r *Roster) UpdatePlayers(players []protocol.NetworkPlayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range players {
		r.names[p.Slot] = p.Name
		r.slots[p.Name] = p.Slot
	}
}

// UpdateSlotGames records each slot's game title. Keys that are not
// integers are skipped and returned.
func (r *Roster) UpdateSlotGames(info map[string]protocol.NetworkSlot) (skipped []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, slot := range info {
		n, err := strconv.Atoi(key)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}
		r.titles[n] = slot.Game
	}
	return skipped
}

func (r *Roster) Name(slot int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[slot]
	return name, ok
}

func (r *Roster) Game(slot int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	title, ok := r.titles[slot]
	return title, ok
}

// Slot is the reverse of Name.
func (r *Roster) Slot(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[name]
	return slot, ok
}

// Players returns a copy of the slot→name table.
func (r *Roster) Players() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]string, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out
}

// Games returns a copy of the slot→title table.
func (r *Roster) Games() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]string, len(r.titles))
	for k, v := range r.titles {
		out[k] = v
	}
	return out
}

func (r *Roster) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = make(map[int]string)
	r.slots = make(map[string]int)
	r.titles = make(map[int]string)
}
