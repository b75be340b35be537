package protocol

import (
	"strings"

	"github.com/google/uuid"

	"github.com/apreader/client/pkg/client"
	ap "github.com/apreader/client/pkg/protocol"
)

const ModuleName = "protocol"

// Module drives the client through authenticating -> active and issues the
// one catalog request of the session.
type Module struct {
	client *client.Client

	// SessionID is the uuid sent with the last handshake.
	SessionID string

	catalogRequested bool
	refusal          []string

	onConnected []func(f *ap.Connected)
	onRefused   []func(errs []string)
}

func New() *Module {
	return &Module{}
}

func (m *Module) Name() string { return ModuleName }

func (m *Module) Init(c *client.Client) {
	m.client = c
}

func (m *Module) Reset() {
	m.SessionID = ""
	m.catalogRequested = false
	m.refusal = nil
}

// From retrieves the protocol module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// events

func (m *Module) OnConnected(cb func(f *ap.Connected)) { m.onConnected = append(m.onConnected, cb) }
func (m *Module) OnRefused(cb func(errs []string))     { m.onRefused = append(m.onRefused, cb) }

// CatalogRequested reports whether this session already asked for catalogs.
func (m *Module) CatalogRequested() bool { return m.catalogRequested }

// Refusal returns the errors of a ConnectionRefused, if one arrived.
func (m *Module) Refusal() []string { return m.refusal }

// OnConnect sends the Connect handshake once the socket is open.
func (m *Module) OnConnect() {
	c := m.client

	m.SessionID = uuid.NewString()
	if err := c.Send(ap.NewConnect(c.Password, c.Game, c.Username, m.SessionID)); err != nil {
		c.Logger.Println("send connect:", err)
		return
	}
	c.SetState(client.StateAuthenticating)
	c.Logger.Println("connection message sent")
}

func (m *Module) HandleFrame(f ap.Frame) {
	switch f := f.(type) {
	case *ap.Connected:
		m.handleConnected(f)
	case *ap.ConnectionRefused:
		m.handleRefused(f)
	}
}

func (m *Module) handleConnected(f *ap.Connected) {
	c := m.client

	c.SetState(client.StateActive)
	c.Logger.Println("successfully authenticated")

	if !m.catalogRequested {
		m.catalogRequested = true
		if err := c.Send(ap.NewGetDataPackage(c.CatalogGames...)); err != nil {
			c.Logger.Println("send catalog request:", err)
		} else if c.Verbose {
			c.Logger.Println("catalog requested")
		}
	}

	for _, cb := range m.onConnected {
		cb(f)
	}
}

func (m *Module) handleRefused(f *ap.ConnectionRefused) {
	c := m.client

	m.refusal = f.Errors
	c.Logger.Printf("server refused connection: %v", f.Errors)
	for _, cb := range m.onRefused {
		cb(f.Errors)
	}
	label := client.LabelConnectionRefused
	if len(f.Errors) > 0 {
		label += ": " + strings.Join(f.Errors, ", ")
	}
	_ = c.CloseWithStatus(label)
}
