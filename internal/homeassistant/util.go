package homeassistant

import (
	"strings"

	"github.com/daemonp/envisalink2mqtt/internal/types"
)

// deviceClass guesses a binary_sensor device class from the zone label.
func deviceClass(zone types.Zone) string {
	label := strings.ToLower(zone.Label)
	switch {
	case strings.Contains(label, "pir"), strings.Contains(label, "motion"):
		return "motion"
	case strings.Contains(label, "door"):
		return "door"
	case strings.Contains(label, "window"):
		return "window"
	case strings.Contains(label, "smoke"), strings.Contains(label, "fire"):
		return "smoke"
	case strings.Contains(label, "gas"):
		return "gas"
	case strings.Contains(label, "water"), strings.Contains(label, "flood"):
		return "moisture"
	}
	return "opening"
}
