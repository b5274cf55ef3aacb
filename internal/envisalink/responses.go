package envisalink

import (
	"fmt"

	"github.com/daemonp/envisalink2mqtt/internal/types"
)

// layout tells where the fields of a response live in the frame.
type layout int

const (
	noFields layout = iota
	// partition digit at offset 3
	partitionFields
	// partition digit at offset 3, zone id at offsets 4-6
	partitionZoneFields
	// zone id at offsets 3-5
	zoneFields
)

type decoder func(c *Classifier, word string, o *Outcome) (string, error)

// response describes one entry of the response catalogue. Either format is
// rendered with the fields of layout, or decode builds the message itself.
type response struct {
	name   string
	kind   types.EventType
	layout layout
	format string
	decode decoder
}

func (r response) message(c *Classifier, word string, o *Outcome) (string, error) {
	if r.decode != nil {
		return r.decode(c, word, o)
	}

	switch r.layout {
	case partitionFields:
		p, ok, err := c.partition(word)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf(r.format, p), nil
	case partitionZoneFields:
		p, pok, err := c.partition(word)
		if err != nil {
			return "", err
		}
		z, zok, err := c.zone(word, 4)
		if err != nil || !pok || !zok {
			return "", err
		}
		return fmt.Sprintf(r.format, p, z), nil
	case zoneFields:
		z, ok, err := c.zone(word, 3)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf(r.format, z), nil
	}
	return r.format, nil
}

var responses = map[string]response{
	"500": {name: "command acknowledge", kind: types.EventResponse, decode: decodeAck},
	"501": {name: "command error", kind: types.EventFault, format: "command error, bad checksum"},
	"502": {name: "system error", kind: types.EventFault, decode: decodeSystemError},
	"505": {name: "login", kind: types.EventResponse, decode: decodeLogin},
	"510": {name: "keypad LED state", kind: types.EventInfo, decode: decodeLEDs("lit keypad LEDs = ", true)},
	"511": {name: "keypad LED flash state", kind: types.EventInfo, decode: decodeLEDs("flashing keypad LEDs = ", false)},
	"550": {name: "time/date broadcast", kind: types.EventInfo, decode: decodeTimeDate},
	"560": {name: "ring detected", kind: types.EventInfo, format: "ring detected"},
	"561": {name: "indoor temperature", kind: types.EventInfo, decode: decodeTemperature("indoor")},
	"562": {name: "outdoor temperature", kind: types.EventInfo, decode: decodeTemperature("outdoor")},

	"601": {name: "alarm", kind: types.EventAlarm, layout: partitionZoneFields, format: "alarm. partition = %s zone = %s"},
	"602": {name: "alarm clear", kind: types.EventRecovery, layout: partitionZoneFields, format: "alarm cleared. partition = %s zone = %s"},
	"603": {name: "tamper", kind: types.EventAlarm, layout: partitionZoneFields, format: "tamper. partition = %s zone = %s"},
	"604": {name: "tamper clear", kind: types.EventRecovery, layout: partitionZoneFields, format: "tamper cleared. partition = %s zone = %s"},
	"605": {name: "zone fault", kind: types.EventAlarm, layout: zoneFields, format: "zone %s fault"},
	"606": {name: "zone fault clear", kind: types.EventRecovery, layout: zoneFields, format: "zone %s fault cleared"},
	"609": {name: "zone open", kind: types.EventInfo, layout: zoneFields, format: "zone %s open"},
	"610": {name: "zone closed", kind: types.EventInfo, layout: zoneFields, format: "zone %s closed"},
	"615": {name: "zone timer dump", kind: types.EventInfo, format: "received [615]: zone timer dump"},
	"620": {name: "duress alarm", kind: types.EventAlarm, format: "duress alarm"},
	"621": {name: "fire key alarm", kind: types.EventAlarm, format: "fire key alarm detected"},
	"622": {name: "fire key alarm clear", kind: types.EventRecovery, format: "fire key alarm restored"},
	"623": {name: "auxillary key alarm", kind: types.EventAlarm, format: "auxillary key alarm detected"},
	"624": {name: "auxillary alarm clear", kind: types.EventRecovery, format: "auxillary key alarm restored"},
	"625": {name: "panic alarm", kind: types.EventAlarm, format: "panic key detected"},
	"626": {name: "panic alarm clear", kind: types.EventRecovery, format: "panic key restored"},
	"631": {name: "smoke/aux alarm", kind: types.EventAlarm, format: "smoke/aux alarm detected"},
	"632": {name: "smoke/aux alarm clear", kind: types.EventRecovery, format: "smoke/aux alarm restored"},

	"650": {name: "partition ready", kind: types.EventInfo, layout: partitionFields, format: "partition %s ready"},
	"651": {name: "partition not ready", kind: types.EventInfo, layout: partitionFields, format: "partition %s not ready"},
	"652": {name: "partition armed", kind: types.EventArmed, decode: decodeArmed},
	"653": {name: "partition force arming enabled", kind: types.EventInfo, layout: partitionFields, format: "partition %s forcing alarm enabled"},
	"654": {name: "partition alarm", kind: types.EventAlarm, layout: partitionFields, format: "partition %s in alarm"},
	"655": {name: "partition disarmed", kind: types.EventDisarmed, layout: partitionFields, format: "partition %s disarmed"},
	"656": {name: "partition exit delay", kind: types.EventArmed, layout: partitionFields, format: "partition %s exit delay"},
	"657": {name: "partition entry delay", kind: types.EventInfo, layout: partitionFields, format: "partition %s entry delay"},
	"658": {name: "partition keypad lockout", kind: types.EventAlarm, layout: partitionFields, format: "partition %s keypad lockout"},
	"659": {name: "partition failed to arm", kind: types.EventFault, layout: partitionFields, format: "partition %s failed to arm"},
	"660": {name: "partition PGM output", kind: types.EventInfo, layout: partitionFields, format: "partition %s PGM output"},
	"663": {name: "chime enabled", kind: types.EventInfo, layout: partitionFields, format: "partition %s chime enabled"},
	"664": {name: "chime disabled", kind: types.EventInfo, layout: partitionFields, format: "partition %s chime disabled"},
	"670": {name: "partition invalid access", kind: types.EventAlarm, layout: partitionFields, format: "partition %s invalid access code"},
	"671": {name: "partition function not available", kind: types.EventFault, layout: partitionFields, format: "partition %s function not available"},
	"672": {name: "partition failure to arm", kind: types.EventFault, layout: partitionFields, format: "partition %s failure to arm"},
	"673": {name: "partition is busy", kind: types.EventFault, layout: partitionFields, format: "partition %s is busy"},
	"674": {name: "partition arming", kind: types.EventInfo, layout: partitionFields, format: "partition %s is arming"},
	"680": {name: "installer's mode", kind: types.EventAlarm, format: "system in installer's mode"},

	"700": {name: "partition user closing", kind: types.EventInfo, layout: partitionFields, format: "partition = %s armed by user"},
	"701": {name: "partition armed by method", kind: types.EventInfo, layout: partitionFields, format: "partition %s armed by method"},
	"702": {name: "partition armed, but zone(s) bypassed", kind: types.EventInfo, layout: partitionFields, format: "partition %s armed but zone(s) bypassed"},
	"750": {name: "partition disarmed by user", kind: types.EventInfo, layout: partitionFields, format: "partition %s disarmed by user"},
	"751": {name: "partition disarmed by method", kind: types.EventInfo, layout: partitionFields, format: "partition %s partition disarmed by method"},

	"800": {name: "closet panel battery trouble", kind: types.EventFault, format: "closet panel battery trouble"},
	"801": {name: "closet panel battery okay", kind: types.EventFault, format: "closet panel battery restore"},
	"802": {name: "closet panel AC trouble", kind: types.EventFault, format: "closet panel AC trouble"},
	"803": {name: "closet panel AC okay", kind: types.EventFault, format: "closet panel AC restored"},
	"806": {name: "system bell trouble", kind: types.EventFault, format: "bell trouble"},
	"807": {name: "system bell okay", kind: types.EventFault, format: "bell restored"},
	"814": {name: "closet panel cannot communicate with monitoring", kind: types.EventFault, format: "closet panel failed to communicate with monitoring"},
	"816": {name: "buffer nearly full", kind: types.EventFault, format: "buffer near full"},
	"829": {name: "general system tamper", kind: types.EventAlarm, format: "general system tamper"},
	"830": {name: "general system tamper restore", kind: types.EventRecovery, format: "general system tamper cleared"},
	"840": {name: "partition trouble LED on", kind: types.EventFault, layout: partitionFields, format: "partition %s trouble LED on"},
	"841": {name: "partition trouble LED off", kind: types.EventInfo, layout: partitionFields, format: "partition %s trouble LED off"},
	"842": {name: "fire trouble alarm", kind: types.EventAlarm, format: "fire trouble alarm"},
	"843": {name: "fire trouble alarm cleared", kind: types.EventRecovery, format: "fire trouble alarm cleared"},
	"849": {name: "verbose trouble status", kind: types.EventFault, decode: decodeTrouble},

	"900": {name: "code required", kind: types.EventResponse, decode: decodeCodeRequired},
	"912": {name: "command output pressed", kind: types.EventResponse, format: "command output pressed"},
	"921": {name: "master code required", kind: types.EventResponse, format: "master code required"},
	"922": {name: "installer's code required", kind: types.EventResponse, format: "installer's code required"},
}

// ResponseName returns the catalogue name of a response code.
func ResponseName(code string) (string, bool) {
	r, ok := responses[code]
	return r.name, ok
}
