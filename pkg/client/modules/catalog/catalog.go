package catalog

import (
	"github.com/apreader/client/pkg/catalog"
	"github.com/apreader/client/pkg/client"
	"github.com/apreader/client/pkg/protocol"
)

const ModuleName = "catalog"

// Module owns the session catalog store and fills it from DataPackage.
type Module struct {
	client *client.Client
	store  *catalog.Store

	onLoaded []func(games []string)
}

func New() *Module {
	return &Module{store: catalog.NewStore()}
}

func (m *Module) Name() string          { return ModuleName }
func (m *Module) Init(c *client.Client) { m.client = c }
func (m *Module) Reset()                { m.store.Reset() }

// From retrieves the catalog module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// Store exposes the session catalog for reads.
func (m *Module) Store() *catalog.Store { return m.store }

// OnLoaded fires after each DataPackage with the titles it carried.
func (m *Module) OnLoaded(cb func(games []string)) { m.onLoaded = append(m.onLoaded, cb) }

func (m *Module) HandleFrame(f protocol.Frame) {
	pkg, ok := f.(*protocol.DataPackage)
	if !ok {
		return
	}
	c := m.client

	c.Logger.Println("received data package")
	games := m.store.Ingest(pkg.Data)
	c.Logger.Printf("loaded mappings for games: %v", m.store.Games())
	for _, cb := range m.onLoaded {
		cb(games)
	}
}
