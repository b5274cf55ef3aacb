package homeassistant

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/daemonp/envisalink2mqtt/internal/bus"
	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/daemonp/envisalink2mqtt/internal/util"
)

// Alarm control panel states understood by Home Assistant.
const (
	StateDisarmed  = "disarmed"
	StateArming    = "arming"
	StateArmedAway = "armed_away"
	StateTriggered = "triggered"
)

// Zone binary_sensor payloads.
const (
	ZoneOpen   = "open"
	ZoneClosed = "closed"
)

const (
	// exitDelayCode is the partition exit delay response, reported as armed.
	exitDelayCode  = "656"
	zoneOpenCode   = "609"
	zoneClosedCode = "610"
)

type HomeAssistant struct {
	config   *config.HomeAssistantConfig
	bus      bus.Retainer
	commands []string
	zones    []types.Zone
	log      *log.Logger

	mu    sync.Mutex
	state string
	open  map[string]bool
}

func New(cfg *config.HomeAssistantConfig, retainer bus.Retainer, commands []string, zones []types.Zone, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config:   cfg,
		bus:      retainer,
		commands: commands,
		zones:    zones,
		log:      logger,
		open:     make(map[string]bool),
	}
}

func (ha *HomeAssistant) Start() error {
	ha.log.Info("Starting Home Assistant integration")
	if err := ha.publishPanelConfig(); err != nil {
		return err
	}
	for _, zone := range ha.zones {
		if err := ha.publishZoneConfig(zone); err != nil {
			return err
		}
	}
	return nil
}

func (ha *HomeAssistant) publishPanelConfig() error {
	prefix := ha.bus.Topics().Prefix()
	config := map[string]interface{}{
		"name":                 "Alarm",
		"unique_id":            fmt.Sprintf("%s_alarm", util.Slugify(prefix)),
		"state_topic":          ha.bus.Topics().State(),
		"command_topic":        ha.bus.Topics().Channel(ha.commands[0]),
		"availability_topic":   ha.bus.Topics().Status(),
		"payload_arm_away":     "arm",
		"payload_disarm":       "disarm",
		"code_arm_required":    false,
		"code_disarm_required": false,
		"supported_features":   []string{"arm_away"},
		"device":               map[string]interface{}{
			"name":         "Envisalink",
			"identifiers":  []string{prefix},
			"manufacturer": "Eyez-On",
			"model":        "Envisalink TPI",
		},
	}
	return ha.publishConfig("alarm_control_panel", "alarm", config)
}

func (ha *HomeAssistant) publishZoneConfig(zone types.Zone) error {
	prefix := ha.bus.Topics().Prefix()
	config := map[string]interface{}{
		"name":               zone.Label,
		"unique_id":          fmt.Sprintf("%s_zone_%s", util.Slugify(prefix), zone.ID),
		"state_topic":        ha.bus.Topics().Zone(zone.ID),
		"availability_topic": ha.bus.Topics().Status(),
		"device_class":       deviceClass(zone),
		"payload_on":         ZoneOpen,
		"payload_off":        ZoneClosed,
		"device":             map[string]interface{}{"identifiers": []string{prefix}},
	}
	return ha.publishConfig("binary_sensor", "zone_"+zone.ID, config)
}

func (ha *HomeAssistant) publishConfig(component, objectID string, config map[string]interface{}) error {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, util.Slugify(ha.bus.Topics().Prefix()), objectID)

	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal Home Assistant config: %w", err)
	}
	return ha.bus.PublishRetained(topic, payload)
}

// StateFor maps an event to the alarm state it implies, or "" when the
// event does not change it.
func StateFor(event types.Event) string {
	switch event.Type {
	case types.EventArmed:
		if event.Code == exitDelayCode {
			return StateArming
		}
		return StateArmedAway
	case types.EventDisarmed:
		return StateDisarmed
	case types.EventAlarm:
		return StateTriggered
	}
	return ""
}

// Observe publishes the retained alarm state whenever event changes it, and
// the zone state for zone open and closed events.
func (ha *HomeAssistant) Observe(event types.Event) {
	if event.Code == zoneOpenCode || event.Code == zoneClosedCode {
		ha.observeZone(event)
		return
	}

	state := StateFor(event)
	if state == "" {
		return
	}

	ha.mu.Lock()
	defer ha.mu.Unlock()
	if state == ha.state {
		return
	}
	if err := ha.bus.PublishRetained(ha.bus.Topics().State(), []byte(state)); err != nil {
		ha.log.Error("Failed to publish alarm state: %v", err)
		return
	}
	ha.state = state
	ha.log.Debug("Alarm state is now %s", state)
}

func (ha *HomeAssistant) observeZone(event types.Event) {
	if len(event.Raw) < 6 {
		return
	}
	id := event.Raw[3:6]
	open := event.Code == zoneOpenCode

	ha.mu.Lock()
	defer ha.mu.Unlock()
	if was, seen := ha.open[id]; seen && was == open {
		return
	}
	payload := ZoneClosed
	if open {
		payload = ZoneOpen
	}
	if err := ha.bus.PublishRetained(ha.bus.Topics().Zone(id), []byte(payload)); err != nil {
		ha.log.Error("Failed to publish zone %s state: %v", id, err)
		return
	}
	ha.open[id] = open
}
