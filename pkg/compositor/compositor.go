// Package compositor turns PrintJSON events into readable, routed notification
// lines. It is pure: all state it reads comes through the Names and Catalog
// interfaces, so it can run on any goroutine that can read those.
package compositor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apreader/client/pkg/catalog"
	"github.com/apreader/client/pkg/protocol"
)

// Bucket is a display channel.
type Bucket string

const (
	Incoming Bucket = "incoming"
	Outgoing Bucket = "outgoing"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Incoming, Outgoing}

// ParseBucket accepts "incoming" or "outgoing".
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case Incoming, Outgoing:
		return Bucket(s), nil
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// Marker prefixes every emitted line.
const Marker = "📢"

// UnknownGame is the acting game when the sender's slot has no title.
const UnknownGame = "Unknown"

type Kind int

const (
	KindNone Kind = iota
	KindSent
	KindReceived
	KindFound
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindReceived:
		return "received"
	case KindFound:
		return "found"
	}
	return "none"
}

// Names resolves slots. Satisfied by *roster.Roster.
type Names interface {
	Name(slot int) (string, bool)
	Game(slot int) (string, bool)
}

// Catalog resolves ids. Satisfied by *catalog.Store.
type Catalog interface {
	Item(game string, id int64) string
	Location(game string, id int64) string
	ItemAnyGame(id int64) string
	LocationAnyGame(id int64) string
}

type Notification struct {
	Bucket Bucket
	Text   string
}

// Event is a PrintJSON after classification and rendering, before routing.
type Event struct {
	Kind      Kind
	Sender    *int
	Receiver  *int
	Text      string
	Mentioned []string // in order of first mention
}

type Compositor struct {
	names   Names
	catalog Catalog
	targets map[string]struct{}
}

// New builds a compositor for a target player list; an empty list shows everyone.
func New(names Names, cat Catalog, targets []string) *Compositor {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return &Compositor{names: names, catalog: cat, targets: set}
}

// ShowAll reports whether the target set is empty.
func (c *Compositor) ShowAll() bool { return len(c.targets) == 0 }

func (c *Compositor) isTarget(name string) bool {
	_, ok := c.targets[name]
	return ok
}

// Compose decodes and routes one PrintJSON event.
func (c *Compositor) Compose(msg *protocol.PrintJSON) []Notification {
	if msg == nil {
		return nil
	}
	return c.Route(c.Decode(msg.Data))
}

// Decode classifies the fragments and renders them to text.
func (c *Compositor) Decode(parts []protocol.MessagePart) Event {
	var ev Event

	// first two numeric player references are sender and receiver; the
	// first text fragment naming an action sets the kind
	for _, p := range parts {
		switch p.Type {
		case protocol.PartPlayerID:
			slot, ok := parseSlot(p.Text)
			if !ok {
				continue
			}
			if ev.Sender == nil {
				ev.Sender = &slot
			} else if ev.Receiver == nil {
				ev.Receiver = &slot
			}
		case protocol.PartText:
			if ev.Kind == KindNone {
				ev.Kind = classify(p.Text)
			}
		}
	}
	if ev.Kind == KindFound && ev.Receiver == nil && ev.Sender != nil {
		receiver := *ev.Sender
		ev.Receiver = &receiver
	}

	game := c.actingGame(ev.Sender)
	seen := make(map[string]bool)
	var b strings.Builder
	for _, p := range parts {
		switch p.Type {
		case protocol.PartText:
			b.WriteString(p.Text)
		case protocol.PartPlayerID:
			slot, ok := parseSlot(p.Text)
			if !ok {
				b.WriteString(p.Text)
				continue
			}
			name, known := c.names.Name(slot)
			if !known {
				name = fmt.Sprintf("Player %d", slot)
			}
			b.WriteString(name)
			if !seen[name] {
				seen[name] = true
				ev.Mentioned = append(ev.Mentioned, name)
			}
		case protocol.PartItemID:
			id, ok := parseID(p.Text)
			if !ok {
				b.WriteString(p.Text)
				continue
			}
			name := c.catalog.Item(game, id)
			if name == catalog.ItemPlaceholder(id) {
				name = c.catalog.ItemAnyGame(id)
			}
			b.WriteString(name)
		case protocol.PartLocationID:
			id, ok := parseID(p.Text)
			if !ok {
				b.WriteString(p.Text)
				continue
			}
			name := c.catalog.Location(game, id)
			if name == catalog.LocationPlaceholder(id) {
				name = c.catalog.LocationAnyGame(id)
			}
			b.WriteString(name)
		default:
			b.WriteString(p.Text)
		}
	}
	ev.Text = b.String()
	return ev
}

// actingGame is the sender's game whatever the kind; ids in a PrintJSON are
// looked up in the sender's namespace first.
func (c *Compositor) actingGame(sender *int) string {
	if sender == nil {
		return UnknownGame
	}
	if game, ok := c.names.Game(*sender); ok {
		return game
	}
	return UnknownGame
}

// Match reports whether ev passes the filter: its rendered text names an
// action and it mentions a target player, or the target set is empty. A
// matching event may still route to no bucket.
func (c *Compositor) Match(ev Event) bool {
	sent, received, found := keywords(ev.Text)
	if !sent && !received && !found {
		return false
	}
	if c.ShowAll() {
		return true
	}
	for _, name := range ev.Mentioned {
		if c.isTarget(name) {
			return true
		}
	}
	return false
}

func keywords(text string) (sent, received, found bool) {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "sent"), strings.Contains(lower, "received"), strings.Contains(lower, "found")
}

// Route filters a decoded event against the target set and picks buckets.
// The keyword check runs again on the rendered text, independently of Kind.
func (c *Compositor) Route(ev Event) []Notification {
	if !c.Match(ev) {
		return nil
	}
	sent, received, found := keywords(ev.Text)

	sender, senderOK := c.slotName(ev.Sender)
	receiver, receiverOK := c.slotName(ev.Receiver)
	senderTarget := senderOK && c.isTarget(sender)
	receiverTarget := receiverOK && c.isTarget(receiver)

	buckets := make(map[Bucket]bool, 2)
	switch {
	case sent:
		if senderTarget {
			buckets[Outgoing] = true
		}
		if receiverTarget {
			buckets[Incoming] = true
		}
		if senderOK && receiverOK && sender == receiver && senderTarget {
			buckets[Incoming] = true
			buckets[Outgoing] = true
		}
	case received:
		if senderTarget {
			buckets[Incoming] = true
		}
		if receiverTarget {
			buckets[Outgoing] = true
		}
	case found:
		if senderTarget {
			buckets[Incoming] = true
			buckets[Outgoing] = true
		}
	}
	if c.ShowAll() {
		buckets[Incoming] = true
		buckets[Outgoing] = true
	}

	line := Marker + " " + ev.Text
	var out []Notification
	for _, b := range Buckets {
		if buckets[b] {
			out = append(out, Notification{Bucket: b, Text: line})
		}
	}
	return out
}

func (c *Compositor) slotName(slot *int) (string, bool) {
	if slot == nil {
		return "", false
	}
	return c.names.Name(*slot)
}

// classify checks one text fragment; sent beats received beats found.
func classify(text string) Kind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sent"):
		return KindSent
	case strings.Contains(lower, "received"):
		return KindReceived
	case strings.Contains(lower, "found"):
		return KindFound
	}
	return KindNone
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseSlot(s string) (int, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func parseID(s string) (int64, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
