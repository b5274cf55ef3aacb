package types

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventAlarm    EventType = "alarm"
	EventRecovery EventType = "recovery"
	EventFault    EventType = "fault"
	EventInfo     EventType = "info"
	EventArmed    EventType = "armed"
	EventDisarmed EventType = "disarmed"
	EventResponse EventType = "response"
	EventUnknown  EventType = "unknown"
	// EventCommand mirrors a command written to the panel.
	EventCommand EventType = "command"
)

// EventTypes lists every type an Event published on the bus may carry.
var EventTypes = []EventType{
	EventCommand,
	EventInfo,
	EventArmed,
	EventDisarmed,
	EventResponse,
	EventAlarm,
	EventRecovery,
	EventFault,
	EventUnknown,
}

func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event is the document published to the bus for every decoded panel
// response and every command sent to the panel.
type Event struct {
	Type      EventType `json:"type"`
	Code      string    `json:"code"`
	Raw       string    `json:"raw"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

func NewEvent(t EventType, code, raw, message string) Event {
	return Event{
		Type:      t,
		Code:      code,
		Raw:       raw,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
}

// Command is an intent to send something to the panel. Code is always the
// three digit, zero padded protocol command.
type Command struct {
	Code  string
	Data  string
	Label string
}

func (c Command) String() string {
	return fmt.Sprintf("%s%s (%s)", c.Code, c.Data, c.Label)
}

type Zone struct {
	ID    string
	Label string
}
