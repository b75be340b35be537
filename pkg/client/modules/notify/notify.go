package notify

import (
	"github.com/apreader/client/pkg/catalog"
	"github.com/apreader/client/pkg/client"
	catalogmod "github.com/apreader/client/pkg/client/modules/catalog"
	rostermod "github.com/apreader/client/pkg/client/modules/roster"
	"github.com/apreader/client/pkg/compositor"
	"github.com/apreader/client/pkg/protocol"
	"github.com/apreader/client/pkg/roster"
)

const ModuleName = "notify"

// Module composes PrintJSON events and pushes the lines to the client's display.
// Register it after the roster and catalog modules.
type Module struct {
	client     *client.Client
	compositor *compositor.Compositor

	onNotification []func(n compositor.Notification)
}

func New() *Module {
	return &Module{}
}

func (m *Module) Name() string { return ModuleName }

func (m *Module) Init(c *client.Client) { m.client = c }

func (m *Module) Reset() { m.compositor = nil }

// From retrieves the notify module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// OnNotification fires once per emitted (bucket, line) pair.
func (m *Module) OnNotification(cb func(n compositor.Notification)) {
	m.onNotification = append(m.onNotification, cb)
}

func (m *Module) HandleFrame(f protocol.Frame) {
	msg, ok := f.(*protocol.PrintJSON)
	if !ok {
		return
	}
	c := m.client

	comp := m.session()
	ev := comp.Decode(msg.Data)
	if !comp.Match(ev) {
		return
	}
	c.Logger.Println(compositor.Marker + " " + ev.Text)

	for _, n := range comp.Route(ev) {
		c.Notify(n.Bucket, n.Text)
		for _, cb := range m.onNotification {
			cb(n)
		}
	}
}

// session builds the compositor lazily so it reads the stores registered on
// the client; missing modules fall back to empty stores.
func (m *Module) session() *compositor.Compositor {
	if m.compositor != nil {
		return m.compositor
	}
	c := m.client

	var names compositor.Names = roster.New()
	if mod := rostermod.From(c); mod != nil {
		names = mod.Roster()
	}
	var cat compositor.Catalog = catalog.NewStore()
	if mod := catalogmod.From(c); mod != nil {
		cat = mod.Store()
	}

	m.compositor = compositor.New(names, cat, c.TargetPlayers)
	return m.compositor
}
