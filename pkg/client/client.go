package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apreader/client/pkg/compositor"
	"github.com/apreader/client/pkg/protocol"
)

// DefaultMaxMessageSize is the default read limit for one inbound message.
const DefaultMaxMessageSize = 10 * 1024 * 1024

// ErrNotConnected is returned by Send outside an open session.
var ErrNotConnected = errors.New("not connected")

// Keywords that let an undecodable frame through as a diagnostic line.
var diagnosticKeywords = []string{"sent", "received", "found"}

type Client struct {
	// connection
	Address  string
	Username string
	Password string
	Game     string
	Verbose  bool

	// MaxMessageSize caps one inbound websocket message; 0 means no limit.
	MaxMessageSize int64

	// TargetPlayers filters notifications; empty shows everyone.
	TargetPlayers []string
	// CatalogGames narrows the catalog request; empty asks for every game.
	CatalogGames []string

	Logger  *log.Logger
	Display Display
	Dialer  *websocket.Dialer

	// modules
	modules       []Module
	modulesByName map[string]Module
	handlers      []Handler

	// session
	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	outgoing chan []byte
	done     chan struct{}
	closing  bool
}

// New creates a minimal client. Register modules before calling ConnectAndStart.
func New(address, username, game string) *Client {
	return &Client{
		Address:        address,
		Username:       username,
		Game:           game,
		MaxMessageSize: DefaultMaxMessageSize,
		Logger:         log.New(os.Stdout, "", log.LstdFlags),
		modulesByName:  make(map[string]Module),
	}
}

// Register adds a module to the client. Panics on duplicate name.
func (c *Client) Register(m Module) {
	if _, exists := c.modulesByName[m.Name()]; exists {
		panic("module already registered: " + m.Name())
	}
	c.modules = append(c.modules, m)
	c.modulesByName[m.Name()] = m
	m.Init(c)
}

// Module returns a registered module by name, or nil.
func (c *Client) Module(name string) Module {
	return c.modulesByName[name]
}

// RegisterHandler appends a frame callback that runs after every module.
func (c *Client) RegisterHandler(h Handler) {
	c.handlers = append(c.handlers, h)
}

// GetUsername returns the slot name (satisfies tui.ClientInterface).
func (c *Client) GetUsername() string { return c.Username }

// GetAddress returns the server address (satisfies tui.ClientInterface).
func (c *Client) GetAddress() string { return c.Address }

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState moves the session to s. Modules drive the Authenticating and
// Active transitions; the client owns the rest.
func (c *Client) SetState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if c.Verbose && prev != s {
		c.Logger.Printf("state: %s -> %s", prev, s)
	}
}

func (c *Client) display() Display {
	if c.Display == nil {
		return Displays()
	}
	return c.Display
}

// Notify forwards one rendered line to the display.
func (c *Client) Notify(bucket compositor.Bucket, text string) {
	c.display().Notify(bucket, text)
}

// Report forwards a connection report to the display.
func (c *Client) Report(label string, ok bool) {
	c.display().SetConnectionState(label, ok)
}

// Send queues commands for the writer goroutine. It does not wait for the
// write; replies arrive through the normal dispatch path.
func (c *Client) Send(cmds ...any) error {
	data, err := protocol.Encode(cmds...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	out, done := c.outgoing, c.done
	c.mu.Unlock()
	if out == nil {
		return ErrNotConnected
	}

	select {
	case out <- data:
		return nil
	case <-done:
		return ErrNotConnected
	}
}

// Close ends the session from the caller's side and reports a disconnect.
func (c *Client) Close() error {
	return c.CloseWithStatus(LabelDisconnected)
}

// CloseWithStatus ends the session and reports label to the display. It is a
// no-op when no session is open or one is already closing.
func (c *Client) CloseWithStatus(label string) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	// report before the read loop can observe the closed socket
	c.SetState(StateClosed)
	c.Logger.Println("connection closed")
	c.Report(label, false)
	return conn.Close()
}

// ConnectAndStart dials the server, runs the handshake hooks and processes
// inbound frames until the session ends. A remote close is not an error.
// Cancelling ctx closes the session.
func (c *Client) ConnectAndStart(ctx context.Context) error {
	// reset all modules
	for _, m := range c.modules {
		m.Reset()
	}
	c.SetState(StateConnecting)

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, c.Address, nil)
	if err != nil {
		c.SetState(StateClosed)
		c.Logger.Printf("connection error: %v", err)
		c.Report(LabelConnectionFailed, false)
		return fmt.Errorf("connect failed: %w", err)
	}
	if c.MaxMessageSize > 0 {
		conn.SetReadLimit(c.MaxMessageSize)
	}

	done := make(chan struct{})
	outgoing := make(chan []byte, 16)
	c.mu.Lock()
	c.conn = conn
	c.done = done
	c.outgoing = outgoing
	c.closing = false
	c.mu.Unlock()

	writerDone := make(chan struct{})
	defer c.endSession(conn, done, writerDone)

	c.Logger.Printf("connected to %s", c.Address)
	c.Report(LabelConnected, true)
	if len(c.TargetPlayers) > 0 {
		c.Logger.Printf("filtering messages for players: %s", strings.Join(c.TargetPlayers, ", "))
	}

	// outgoing queue worker
	go func() {
		defer close(writerDone)
		c.writeLoop(conn, outgoing, done)
	}()

	cancelled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(cancelled)
		_ = c.Close()
	})
	defer func() {
		if !stop() {
			<-cancelled
		}
	}()

	// notify modules of connection
	for _, m := range c.modules {
		if ch, ok := m.(ConnectHandler); ok {
			ch.OnConnect()
		}
	}

	// frame loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return c.readEnded(err)
		}
		c.handleMessage(data)
	}
}

// endSession stops the writer and waits for it, so nothing touches the
// connection or the logger once ConnectAndStart returns.
func (c *Client) endSession(conn *websocket.Conn, done, writerDone chan struct{}) {
	c.mu.Lock()
	close(done)
	if c.conn == conn {
		c.conn = nil
		c.outgoing = nil
		c.done = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
	<-writerDone
	c.SetState(StateClosed)
}

func (c *Client) readEnded(err error) error {
	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	if closing {
		return nil
	}

	c.Logger.Println("connection closed by server")
	c.Report(LabelDisconnected, false)

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return nil
	}
	return fmt.Errorf("read frame: %w", err)
}

func (c *Client) writeLoop(conn *websocket.Conn, out <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case data := <-out:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if c.ending(done) {
					return
				}
				c.Logger.Println("error writing frame from queue:", err)
			}
		case <-done:
			return
		}
	}
}

// ending reports whether the session is being torn down, locally or by the
// read loop.
func (c *Client) ending(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *Client) handleMessage(raw []byte) {
	frames, err := protocol.Decode(raw)
	if err != nil {
		c.handleUndecodable(raw)
		return
	}
	for _, f := range frames {
		c.dispatch(f, raw)
		if c.State() == StateClosed {
			return
		}
	}
}

// dispatch runs one frame through every module. A failure is logged with the
// raw message and does not stop the session.
func (c *Client) dispatch(f protocol.Frame, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Printf("frame processing error: %v", r)
			c.Logger.Printf("received frame: %s", raw)
		}
	}()

	if inv, ok := f.(*protocol.Invalid); ok {
		c.Logger.Printf("frame processing error: %v", inv.Err)
		c.Logger.Printf("received frame: %s", raw)
		return
	}

	for _, m := range c.modules {
		m.HandleFrame(f)
	}
	for _, h := range c.handlers {
		h(c, f)
	}
}

// handleUndecodable surfaces a non-JSON message as a plain line when it
// names a target player and one of the action keywords; otherwise drops it.
func (c *Client) handleUndecodable(raw []byte) {
	text := string(raw)
	if containsAny(text, c.TargetPlayers) && containsAny(text, diagnosticKeywords) {
		c.Logger.Printf("📢 %s", text)
		return
	}
	if c.Verbose {
		c.Logger.Printf("dropped undecodable frame (%d bytes)", len(raw))
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
