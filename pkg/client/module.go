package client

import "github.com/apreader/client/pkg/protocol"

// Module is a pluggable session component.
type Module interface {
	// Name returns a unique key for this module (e.g. "protocol", "roster", "catalog", "notify").
	Name() string
	// Init is called once when the module is registered on a client.
	// Store the *Client reference for later use.
	Init(c *Client)
	// HandleFrame is called for every decoded inbound frame, in arrival order.
	HandleFrame(f protocol.Frame)
	// Reset is called at the start of each session to clear module state.
	Reset()
}

// ConnectHandler is optionally implemented by modules that need to act
// after the socket opens but before the read loop starts.
// The protocol module uses this to send the Connect handshake.
type ConnectHandler interface {
	OnConnect()
}

// Handler is a lightweight frame callback for one-off matching.
type Handler func(c *Client, f protocol.Frame)
