package envisalink

import (
	"bytes"
	"fmt"

	"github.com/daemonp/envisalink2mqtt/internal/util"
)

const terminator = "\r\n"

// Checksum returns the two character, upper case hex sum of every byte of
// s, modulo 256.
func Checksum(s string) string {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum += s[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// Encode builds one outbound frame: the zero padded three digit code, the
// data, the checksum over both and CR LF.
func Encode(code, data string) []byte {
	body := util.ZeroPad(code, 3) + data
	return []byte(body + Checksum(body) + terminator)
}

// Scanner splits the byte stream read from the bridge into frames. Bytes
// after the last CR LF are kept until the next Feed completes the line.
type Scanner struct {
	pending []byte
}

// Feed appends p and returns every complete frame, checksum included. A zero
// length p means the peer closed the connection and yields ErrPeerClosed.
func (s *Scanner) Feed(p []byte) ([]string, error) {
	if len(p) == 0 {
		return nil, ErrPeerClosed
	}
	s.pending = append(s.pending, p...)

	var frames []string
	for {
		i := bytes.Index(s.pending, []byte(terminator))
		if i < 0 {
			break
		}
		if i > 0 {
			frames = append(frames, string(s.pending[:i]))
		}
		s.pending = s.pending[i+len(terminator):]
	}
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return frames, nil
}

// Reset drops any partial frame, used when the connection is reopened.
func (s *Scanner) Reset() {
	s.pending = nil
}

// StripChecksum removes the trailing two checksum characters. The checksum
// of inbound frames is not verified.
func StripChecksum(frame string) string {
	if len(frame) < 2 {
		return ""
	}
	return frame[:len(frame)-2]
}
