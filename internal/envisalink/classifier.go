package envisalink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/types"
)

var errMalformed = errors.New("malformed frame")

// System status values tracked by the session.
const (
	StatusUnknown   = "unknown"
	StatusConnected = "connected"
	StatusLoggedIn  = "logged in"
	StatusArmed     = "armed"
	StatusDisarmed  = "disarmed"
)

// Outcome is everything a single response frame means to the session. An
// Outcome whose Event has no message is not published.
type Outcome struct {
	Event types.Event
	// Fatal is set for login failures that must fault the session.
	Fatal error
	// LoggedIn is set by a successful login or a 500 ack of the poll.
	LoggedIn bool
	// Acked is set when the outstanding poll was acknowledged.
	Acked bool
	// Status is the new system status, empty when unchanged.
	Status string
	// Reply is a command the protocol requires us to send back.
	Reply *types.Command
}

func (o Outcome) Publishable() bool {
	return o.Event.Message != ""
}

// Classifier maps response frames to typed events. It holds no state beyond
// configuration and is safe for concurrent use.
type Classifier struct {
	zones         config.ZoneTable
	maxZones      int
	maxPartitions int
	masterCode    string
}

func NewClassifier(zones config.ZoneTable, maxPartitions int, masterCode string) *Classifier {
	return &Classifier{
		zones:         zones,
		maxZones:      len(zones),
		maxPartitions: maxPartitions,
		masterCode:    masterCode,
	}
}

// Classify decodes one frame with its checksum already stripped.
func (c *Classifier) Classify(word string) Outcome {
	var o Outcome
	if word == "" {
		return o
	}
	if len(word) < 3 {
		return malformed(word, "")
	}

	code := word[:3]
	r, ok := responses[code]
	if !ok {
		o.Event = types.NewEvent(types.EventFault, code, word, unhandled(""))
		return o
	}

	msg, err := r.message(c, word, &o)
	if err != nil {
		return malformed(word, code)
	}
	kind := o.Event.Type
	if kind == "" {
		kind = r.kind
	}
	o.Event = types.NewEvent(kind, code, word, msg)
	return o
}

func malformed(word, code string) Outcome {
	return Outcome{Event: types.NewEvent(types.EventFault, code, word, errMalformed.Error())}
}

// unhandled renders the message for a code missing from the table. Nothing
// is assembled before it today, the long variant stays for consumers that
// match on it.
func unhandled(assembled string) string {
	if len(assembled) > 20 {
		return assembled + "received[too long]: unhandled response"
	}
	return assembled + "unhandled response"
}

// partition returns the partition digit at offset 3 and whether it is within
// the configured partition count.
func (c *Classifier) partition(word string) (string, bool, error) {
	p := field(word, 3, 4)
	n, err := strconv.Atoi(p)
	if err != nil {
		return "", false, errMalformed
	}
	return p, n <= c.maxPartitions, nil
}

// zone returns the label of the three digit zone id at offset and whether it
// is within the configured zone count.
func (c *Classifier) zone(word string, offset int) (string, bool, error) {
	id := field(word, offset, offset+3)
	if len(id) != 3 {
		return "", false, errMalformed
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return "", false, errMalformed
	}
	return c.zones.Label(id), n <= c.maxZones, nil
}

// field is a bounds tolerant substring.
func field(word string, from, to int) string {
	if from >= len(word) {
		return ""
	}
	if to > len(word) {
		to = len(word)
	}
	return word[from:to]
}

func bitmask(word string) (byte, error) {
	b, err := strconv.ParseUint(field(word, 3, 5), 16, 8)
	if err != nil {
		return 0, errMalformed
	}
	return byte(b), nil
}

// bitLabels lists the labels of every set bit, lowest bit first.
func bitLabels(b byte, labels [8]string) []string {
	var set []string
	for i := 0; i < 8; i++ {
		if b&(1<<i) != 0 && labels[i] != "" {
			set = append(set, labels[i])
		}
	}
	return set
}

func joinOrNone(items []string, sep string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, sep)
}

func decodeAck(c *Classifier, word string, o *Outcome) (string, error) {
	data := field(word, 3, 6)
	if data == "" {
		return "no ack command", nil
	}
	if data == "000" {
		o.LoggedIn = true
		o.Acked = true
		o.Status = StatusLoggedIn
	}
	return "ack " + commandName(data), nil
}

func decodeSystemError(c *Classifier, word string, o *Outcome) (string, error) {
	return "system error = " + systemError(field(word, 3, 6)), nil
}

func decodeLogin(c *Classifier, word string, o *Outcome) (string, error) {
	switch field(word, 3, 4) {
	case "0":
		o.Fatal = ErrBadPassword
		o.Event.Type = types.EventFault
		return ErrBadPassword.Error(), nil
	case "1":
		o.LoggedIn = true
		o.Status = StatusLoggedIn
		o.Event.Type = types.EventInfo
		return "login successful", nil
	case "2":
		o.Fatal = ErrLoginTimeout
		o.Event.Type = types.EventFault
		return ErrLoginTimeout.Error(), nil
	case "3":
		// The password is sent by the session after connecting, not here.
		o.Event.Type = types.EventResponse
		return "socket setup. request password", nil
	}
	return "", nil
}

func decodeLEDs(prefix string, trackStatus bool) decoder {
	return func(c *Classifier, word string, o *Outcome) (string, error) {
		b, err := bitmask(word)
		if err != nil {
			return "", err
		}
		if trackStatus {
			o.Status = StatusDisarmed
			if b&0x02 != 0 {
				o.Status = StatusArmed
			}
		}
		return prefix + joinOrNone(bitLabels(b, LEDLabels), " "), nil
	}
}

func decodeTrouble(c *Classifier, word string, o *Outcome) (string, error) {
	b, err := bitmask(word)
	if err != nil {
		return "", err
	}
	return "verbose trouble status = " + joinOrNone(bitLabels(b, TroubleLabels), " | "), nil
}

func decodeTimeDate(c *Classifier, word string, o *Outcome) (string, error) {
	if len(word) < 13 {
		return "", errMalformed
	}
	return fmt.Sprintf("time and date %s:%s %s/%s/20%s",
		word[3:5], word[5:7], word[7:9], word[9:11], word[11:13]), nil
}

func decodeTemperature(where string) decoder {
	return func(c *Classifier, word string, o *Outcome) (string, error) {
		return where + " temperature = " + field(word, 3, 7), nil
	}
}

func decodeArmed(c *Classifier, word string, o *Outcome) (string, error) {
	p, ok, err := c.partition(word)
	if err != nil || !ok {
		return "", err
	}
	return fmt.Sprintf("partition %s armed, mode = %s", p, armMode(field(word, 4, 5))), nil
}

func decodeCodeRequired(c *Classifier, word string, o *Outcome) (string, error) {
	o.Reply = &types.Command{Code: "200", Data: c.masterCode, Label: "code send"}
	return "code required", nil
}
