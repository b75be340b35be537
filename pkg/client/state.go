package client

// State is the session lifecycle. There is no reconnect state: a closed
// session stays closed until ConnectAndStart is called again.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection labels reported to the display.
const (
	LabelConnected         = "Connected"
	LabelConnectionFailed  = "Connection Failed"
	LabelConnectionRefused = "Connection Refused"
	LabelDisconnected      = "Disconnected"
)
