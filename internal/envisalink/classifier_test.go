package envisalink

import (
	"testing"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/stretchr/testify/require"
)

func testClassifier() *Classifier {
	return NewClassifier(config.ZoneTable{
		"001": "Front door",
		"002": "Back door",
		"003": "Garage",
		"004": "Hallway PIR",
		"005": "Lounge PIR",
		"006": "Smoke",
	}, 1, "1234")
}

func TestClassify(t *testing.T) {
	c := testClassifier()
	for _, tc := range []struct {
		word string
		kind types.EventType
		msg  string
	}{
		{"5000", types.EventResponse, "ack command 0"},
		{"500001", types.EventResponse, "ack status report"},
		{"500", types.EventResponse, "no ack command"},
		{"501", types.EventFault, "command error, bad checksum"},
		{"502020", types.EventFault, "system error = API command syntax error"},
		{"502099", types.EventFault, "system error = unknown error 099"},
		{"5053", types.EventResponse, "socket setup. request password"},
		{"51081", types.EventInfo, "lit keypad LEDs = ready backlight"},
		{"51100", types.EventInfo, "flashing keypad LEDs = none"},
		{"5501230061215", types.EventInfo, "time and date 12:30 06/12/2015"},
		{"560", types.EventInfo, "ring detected"},
		{"5610123", types.EventInfo, "indoor temperature = 0123"},
		{"5621045", types.EventInfo, "outdoor temperature = 1045"},
		{"6011001", types.EventAlarm, "alarm. partition = 1 zone = Front door"},
		{"6021001", types.EventRecovery, "alarm cleared. partition = 1 zone = Front door"},
		{"6031002", types.EventAlarm, "tamper. partition = 1 zone = Back door"},
		{"6041002", types.EventRecovery, "tamper cleared. partition = 1 zone = Back door"},
		{"605003", types.EventAlarm, "zone Garage fault"},
		{"606003", types.EventRecovery, "zone Garage fault cleared"},
		{"609004", types.EventInfo, "zone Hallway PIR open"},
		{"610004", types.EventInfo, "zone Hallway PIR closed"},
		{"615", types.EventInfo, "received [615]: zone timer dump"},
		{"620", types.EventAlarm, "duress alarm"},
		{"6501", types.EventInfo, "partition 1 ready"},
		{"6511", types.EventInfo, "partition 1 not ready"},
		{"65210", types.EventArmed, "partition 1 armed, mode = Away"},
		{"65211", types.EventArmed, "partition 1 armed, mode = Stay in house"},
		{"65219", types.EventArmed, "partition 1 armed, mode = unknown (9)"},
		{"6541", types.EventAlarm, "partition 1 in alarm"},
		{"6551", types.EventDisarmed, "partition 1 disarmed"},
		{"6561", types.EventArmed, "partition 1 exit delay"},
		{"6591", types.EventFault, "partition 1 failed to arm"},
		{"680", types.EventAlarm, "system in installer's mode"},
		{"7001", types.EventInfo, "partition = 1 armed by user"},
		{"7501", types.EventInfo, "partition 1 disarmed by user"},
		{"800", types.EventFault, "closet panel battery trouble"},
		{"830", types.EventRecovery, "general system tamper cleared"},
		{"8401", types.EventFault, "partition 1 trouble LED on"},
		{"8411", types.EventInfo, "partition 1 trouble LED off"},
		{"84943", types.EventFault, "verbose trouble status = service required | AC power lost | low battery"},
		{"912", types.EventResponse, "command output pressed"},
		{"921", types.EventResponse, "master code required"},
		{"922", types.EventResponse, "installer's code required"},
	} {
		t.Run(tc.word, func(t *testing.T) {
			o := c.Classify(tc.word)
			require.Equal(t, tc.kind, o.Event.Type)
			require.Equal(t, tc.msg, o.Event.Message)
			require.Equal(t, tc.word[:3], o.Event.Code)
			require.Equal(t, tc.word, o.Event.Raw)
			require.NotZero(t, o.Event.Timestamp)
			require.True(t, o.Publishable())
			require.NoError(t, o.Fatal)
			require.Nil(t, o.Reply)
		})
	}
}

func TestClassifyArmedScenario(t *testing.T) {
	o := testClassifier().Classify("652" + "1" + "0")
	require.Equal(t, types.EventArmed, o.Event.Type)
	require.Contains(t, o.Event.Message, "partition 1 armed, mode = Away")
}

func TestClassifyBoundsFiltering(t *testing.T) {
	c := testClassifier()
	for _, word := range []string{
		"601" + "1" + "999",
		"6012001",
		"6011007",
		"6042003",
		"605007",
		"609999",
		"6502",
		"65220",
		"7519",
		"8402",
	} {
		t.Run(word, func(t *testing.T) {
			o := c.Classify(word)
			require.False(t, o.Publishable())
			require.Empty(t, o.Event.Message)
		})
	}
}

func TestClassifyUnknownZoneWithinBounds(t *testing.T) {
	c := NewClassifier(config.ZoneTable{"001": "Front door", "005": "Lounge"}, 1, "1234")
	o := c.Classify("609002")
	require.Equal(t, "zone 002 open", o.Event.Message)
}

func TestClassifyUnhandled(t *testing.T) {
	c := testClassifier()
	for _, word := range []string{"999", "123456", "000"} {
		o := c.Classify(word)
		require.Equal(t, types.EventFault, o.Event.Type)
		require.Equal(t, "unhandled response", o.Event.Message)
	}
}

func TestUnhandledLongVariant(t *testing.T) {
	require.Equal(t, "unhandled response", unhandled(""))
	require.Equal(t, "exactly twenty chars" + "unhandled response", unhandled("exactly twenty chars"))
	require.Equal(t, "more than twenty chars: received[too long]: unhandled response", unhandled("more than twenty chars: "))
}

func TestClassifyMalformed(t *testing.T) {
	c := testClassifier()
	for _, word := range []string{"60", "601x001", "6011", "605ab1", "510ZZ", "650", "550123"} {
		t.Run(word, func(t *testing.T) {
			o := c.Classify(word)
			require.Equal(t, types.EventFault, o.Event.Type)
			require.Equal(t, "malformed frame", o.Event.Message)
		})
	}
	require.False(t, c.Classify("").Publishable())
}

func TestClassifyAck(t *testing.T) {
	o := testClassifier().Classify("500000")
	require.True(t, o.Acked)
	require.True(t, o.LoggedIn)
	require.Equal(t, StatusLoggedIn, o.Status)
	require.Equal(t, "ack poll", o.Event.Message)

	o = testClassifier().Classify("500005")
	require.False(t, o.Acked)
	require.False(t, o.LoggedIn)
	require.Equal(t, "ack login", o.Event.Message)
}

func TestClassifyLogin(t *testing.T) {
	c := testClassifier()

	o := c.Classify("5050")
	require.ErrorIs(t, o.Fatal, ErrBadPassword)
	require.Equal(t, types.EventFault, o.Event.Type)
	require.True(t, IsFatal(o.Fatal))

	o = c.Classify("5051")
	require.NoError(t, o.Fatal)
	require.True(t, o.LoggedIn)
	require.False(t, o.Acked)
	require.Equal(t, types.EventInfo, o.Event.Type)
	require.Equal(t, "login successful", o.Event.Message)

	o = c.Classify("5052")
	require.ErrorIs(t, o.Fatal, ErrLoginTimeout)

	o = c.Classify("5053")
	require.NoError(t, o.Fatal)
	require.False(t, o.LoggedIn)

	o = c.Classify("5059")
	require.False(t, o.Publishable())
}

func TestClassifyLEDStatus(t *testing.T) {
	c := testClassifier()
	require.Equal(t, StatusArmed, c.Classify("51002").Status)
	require.Equal(t, StatusDisarmed, c.Classify("51001").Status)
	require.Empty(t, c.Classify("51102").Status)

	o := c.Classify("510FF")
	require.Equal(t, "lit keypad LEDs = ready armed memory bypass trouble program fire backlight", o.Event.Message)
}

func TestClassifyCodeRequired(t *testing.T) {
	o := testClassifier().Classify("900")
	require.Equal(t, types.EventResponse, o.Event.Type)
	require.Equal(t, "code required", o.Event.Message)
	require.NotNil(t, o.Reply)
	require.Equal(t, types.Command{Code: "200", Data: "1234", Label: "code send"}, *o.Reply)
}

func TestResponseTable(t *testing.T) {
	require.GreaterOrEqual(t, len(responses), 70)
	for code, r := range responses {
		require.Len(t, code, 3, code)
		require.NotEmpty(t, r.name, code)
		require.NotEmpty(t, r.kind, code)
		require.True(t, r.decode != nil || r.format != "", code)
	}

	name, ok := ResponseName("652")
	require.True(t, ok)
	require.Equal(t, "partition armed", name)
	_, ok = ResponseName("999")
	require.False(t, ok)
}
