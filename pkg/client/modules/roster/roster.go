package roster

import (
	"github.com/apreader/client/pkg/client"
	"github.com/apreader/client/pkg/protocol"
	"github.com/apreader/client/pkg/roster"
)

const ModuleName = "roster"

// Module owns the session roster and fills it from Connected.
type Module struct {
	client *client.Client
	roster *roster.Roster
}

func New() *Module {
	return &Module{roster: roster.New()}
}

func (m *Module) Name() string          { return ModuleName }
func (m *Module) Init(c *client.Client) { m.client = c }
func (m *Module) Reset()                { m.roster.Reset() }

// From retrieves the roster module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// Roster exposes the session roster for reads.
func (m *Module) Roster() *roster.Roster { return m.roster }

func (m *Module) HandleFrame(f protocol.Frame) {
	connected, ok := f.(*protocol.Connected)
	if !ok {
		return
	}
	c := m.client

	m.roster.UpdatePlayers(connected.Players)
	for _, key := range m.roster.UpdateSlotGames(connected.SlotInfo) {
		c.Logger.Printf("slot_info: ignoring non-numeric slot %q", key)
	}
	if c.Verbose {
		c.Logger.Printf("players: %v", m.roster.Players())
		c.Logger.Printf("games by slot: %v", m.roster.Games())
	}
}
