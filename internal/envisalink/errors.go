package envisalink

import "errors"

var (
	ErrPeerClosed   = errors.New("envisalink closed the connection")
	ErrNotConnected = errors.New("not connected to envisalink")

	ErrBadPassword    = errors.New("password is incorrect")
	ErrLoginTimeout   = errors.New("login timed out. password not sent within 10 seconds of connection")
	ErrLoginFailed    = errors.New("failed to login or logged out")
	ErrNoPollResponse = errors.New("connection closed, no response to poll")
	ErrConnect        = errors.New("could not connect to envisalink")
)

// IsFatal reports whether err must fault the session and stop the process.
func IsFatal(err error) bool {
	for _, fatal := range []error{ErrBadPassword, ErrLoginTimeout, ErrLoginFailed, ErrNoPollResponse, ErrConnect} {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}
