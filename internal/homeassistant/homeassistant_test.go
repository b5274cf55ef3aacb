package homeassistant

import (
	"encoding/json"
	"testing"

	"github.com/daemonp/envisalink2mqtt/internal/bus"
	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/stretchr/testify/require"
)

type retained struct {
	topics   *bus.Topics
	messages map[string][]string
}

func newRetained() *retained {
	return &retained{topics: bus.NewTopics("envisalink2mqtt", "/"), messages: make(map[string][]string)}
}

func (r *retained) PublishRetained(topic string, payload []byte) error {
	r.messages[topic] = append(r.messages[topic], string(payload))
	return nil
}

func (r *retained) Topics() *bus.Topics {
	return r.topics
}

func newHA(r *retained) *HomeAssistant {
	return New(&config.HomeAssistantConfig{Discovery: true, Prefix: "homeassistant"}, r, []string{"commands"}, []types.Zone{
		{ID: "001", Label: "Front door"},
		{ID: "004", Label: "Hallway PIR"},
	}, log.Nop())
}

func TestDiscovery(t *testing.T) {
	r := newRetained()
	require.NoError(t, newHA(r).Start())

	docs := r.messages["homeassistant/alarm_control_panel/envisalink2mqtt/alarm/config"]
	require.Len(t, docs, 1)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(docs[0]), &doc))
	require.Equal(t, "envisalink2mqtt/commands", doc["command_topic"])
	require.Equal(t, "envisalink2mqtt/state", doc["state_topic"])
	require.Equal(t, "envisalink2mqtt/status", doc["availability_topic"])
	require.Equal(t, "arm", doc["payload_arm_away"])
	require.Equal(t, "disarm", doc["payload_disarm"])
}

func TestStateFor(t *testing.T) {
	for _, tc := range []struct {
		event types.Event
		want  string
	}{
		{types.Event{Type: types.EventArmed, Code: "652"}, StateArmedAway},
		{types.Event{Type: types.EventArmed, Code: "656"}, StateArming},
		{types.Event{Type: types.EventDisarmed, Code: "655"}, StateDisarmed},
		{types.Event{Type: types.EventAlarm, Code: "601"}, StateTriggered},
		{types.Event{Type: types.EventInfo, Code: "609"}, ""},
		{types.Event{Type: types.EventCommand, Code: "030"}, ""},
	} {
		require.Equal(t, tc.want, StateFor(tc.event), tc.event.Code)
	}
}

func TestObservePublishesChanges(t *testing.T) {
	r := newRetained()
	ha := newHA(r)

	ha.Observe(types.Event{Type: types.EventArmed, Code: "656"})
	ha.Observe(types.Event{Type: types.EventArmed, Code: "652"})
	ha.Observe(types.Event{Type: types.EventArmed, Code: "652"})
	ha.Observe(types.Event{Type: types.EventInfo, Code: "650"})
	ha.Observe(types.Event{Type: types.EventDisarmed, Code: "655"})

	require.Equal(t, []string{StateArming, StateArmedAway, StateDisarmed}, r.messages["envisalink2mqtt/state"])
}

func TestZoneDiscovery(t *testing.T) {
	r := newRetained()
	require.NoError(t, newHA(r).Start())

	docs := r.messages["homeassistant/binary_sensor/envisalink2mqtt/zone_004/config"]
	require.Len(t, docs, 1)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(docs[0]), &doc))
	require.Equal(t, "Hallway PIR", doc["name"])
	require.Equal(t, "envisalink2mqtt/zone/004", doc["state_topic"])
	require.Equal(t, "motion", doc["device_class"])
	require.Equal(t, ZoneOpen, doc["payload_on"])
	require.Equal(t, ZoneClosed, doc["payload_off"])
	require.Len(t, r.messages["homeassistant/binary_sensor/envisalink2mqtt/zone_001/config"], 1)
}

func TestObserveZones(t *testing.T) {
	r := newRetained()
	ha := newHA(r)

	ha.Observe(types.Event{Type: types.EventInfo, Code: "609", Raw: "609004"})
	ha.Observe(types.Event{Type: types.EventInfo, Code: "609", Raw: "609004"})
	ha.Observe(types.Event{Type: types.EventInfo, Code: "610", Raw: "610004"})
	ha.Observe(types.Event{Type: types.EventInfo, Code: "610", Raw: "610001"})
	ha.Observe(types.Event{Type: types.EventInfo, Code: "609", Raw: "609"})

	require.Equal(t, []string{ZoneOpen, ZoneClosed}, r.messages["envisalink2mqtt/zone/004"])
	require.Equal(t, []string{ZoneClosed}, r.messages["envisalink2mqtt/zone/001"])
	require.Empty(t, r.messages["envisalink2mqtt/state"])
}

func TestDeviceClass(t *testing.T) {
	for label, want := range map[string]string{
		"Hallway PIR":    "motion",
		"Front door":     "door",
		"Kitchen window": "window",
		"Smoke detector": "smoke",
		"Boiler gas":     "gas",
		"Water heater":   "moisture",
		"Garage":         "opening",
	} {
		require.Equal(t, want, deviceClass(types.Zone{Label: label}), label)
	}
}
