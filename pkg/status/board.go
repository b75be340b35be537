package status

import (
	"sync"
	"time"

	"github.com/apreader/client/pkg/compositor"
)

type Entry struct {
	Bucket compositor.Bucket `json:"bucket"`
	Text   string            `json:"text"`
	Time   time.Time         `json:"time"`
}

// State is the connection summary served on /state.
type State struct {
	Label     string                    `json:"label"`
	Connected bool                      `json:"connected"`
	Since     time.Time                 `json:"since"`
	Counts    map[compositor.Bucket]int `json:"counts"`
}

// Board keeps the latest notifications per bucket and the last connection
// report. It satisfies client.Display and is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	max     int
	entries map[compositor.Bucket][]Entry
	label   string
	ok      bool
	since   time.Time

	now func() time.Time
}

// NewBoard keeps at most max entries per bucket; 0 keeps everything.
func NewBoard(max int) *Board {
	return &Board{
		max:     max,
		entries: make(map[compositor.Bucket][]Entry),
		label:   "Not connected",
		now:     time.Now,
	}
}

func (b *Board) Notify(bucket compositor.Bucket, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := append(b.entries[bucket], Entry{Bucket: bucket, Text: text, Time: b.now()})
	if b.max > 0 && len(list) > b.max {
		list = append([]Entry(nil), list[len(list)-b.max:]...)
	}
	b.entries[bucket] = list
}

func (b *Board) SetConnectionState(label string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = label
	b.ok = ok
	b.since = b.now()
}

// Entries returns a copy of one bucket, oldest first.
func (b *Board) Entries(bucket compositor.Bucket) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Entry{}, b.entries[bucket]...)
}

func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[compositor.Bucket]int, len(compositor.Buckets))
	for _, bucket := range compositor.Buckets {
		counts[bucket] = len(b.entries[bucket])
	}
	return State{Label: b.label, Connected: b.ok, Since: b.since, Counts: counts}
}
