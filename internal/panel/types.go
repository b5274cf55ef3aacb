package panel

import (
	"fmt"

	"github.com/daemonp/envisalink2mqtt/internal/envisalink"
)

// State represents the lifecycle state of the session with the bridge.
type State int32

const (
	Disconnected State = iota
	Connecting
	AwaitingLogin
	LoggedIn
	// Faulted is terminal. The process shuts down once it is reached.
	Faulted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingLogin:
		return "awaiting login"
	case LoggedIn:
		return "logged in"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session represents the mutable state of one connection to the bridge.
// The poll acknowledgement and retry count live in the Keepalive.
type Session struct {
	LoggedIn bool
	// LoginWait counts blocks of idle reads seen while not logged in.
	LoginWait int
	// System is the last known system status.
	System string

	idle int
}

func newSession() Session {
	return Session{System: envisalink.StatusUnknown}
}

func (s *Session) reset() {
	*s = newSession()
}
