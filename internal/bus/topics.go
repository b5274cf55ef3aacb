package bus

import (
	"github.com/daemonp/envisalink2mqtt/internal/util"
)

// Topics maps logical channel names to transport names under a prefix.
type Topics struct {
	prefix    string
	separator string
}

func NewTopics(prefix, separator string) *Topics {
	return &Topics{prefix: prefix, separator: separator}
}

func (t *Topics) Prefix() string {
	return t.prefix
}

func (t *Topics) Channel(name string) string {
	return t.prefix + t.separator + util.Slugify(name)
}

func (t *Topics) Channels(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, t.Channel(name))
	}
	return out
}

func (t *Topics) Status() string {
	return t.prefix + t.separator + "status"
}

// State is where the alarm state derived from events is kept.
func (t *Topics) State() string {
	return t.prefix + t.separator + "state"
}

// Zone is where the open or closed state of a zone is kept.
func (t *Topics) Zone(id string) string {
	return t.prefix + t.separator + "zone" + t.separator + id
}
