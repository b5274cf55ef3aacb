package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/daemonp/envisalink2mqtt/internal/util"
)

// ZoneTable maps zone ids to labels. Ids are always three digit, zero padded
// strings whatever their source representation.
type ZoneTable map[string]string

// UnmarshalYAML decodes keys as strings so ids like 008 and 010 keep their
// written form.
func (z *ZoneTable) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	table := make(ZoneTable, len(raw))
	for k, v := range raw {
		id, err := NormalizeZoneID(k)
		if err != nil {
			return err
		}
		table[id] = util.Normalize(v)
	}
	*z = table
	return nil
}

func (z *ZoneTable) UnmarshalTOML(data interface{}) error {
	raw, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("zones must be a table, got %T", data)
	}
	table := make(ZoneTable, len(raw))
	for k, v := range raw {
		id, err := NormalizeZoneID(k)
		if err != nil {
			return err
		}
		table[id] = util.Normalize(fmt.Sprint(v))
	}
	*z = table
	return nil
}

// NormalizeZoneID turns a zone key given as an integer or a string into its
// three digit form.
func NormalizeZoneID(key interface{}) (string, error) {
	var s string
	switch k := key.(type) {
	case int:
		s = strconv.Itoa(k)
	case int64:
		s = strconv.FormatInt(k, 10)
	case uint64:
		s = strconv.FormatUint(k, 10)
	case string:
		s = strings.TrimSpace(k)
	default:
		return "", fmt.Errorf("invalid zone id %v (%T)", key, key)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 999 {
		return "", fmt.Errorf("invalid zone id %q", s)
	}
	return util.ZeroPad(strconv.Itoa(n), 3), nil
}

// Label returns the configured label for id, or the id itself.
func (z ZoneTable) Label(id string) string {
	if label, ok := z[id]; ok {
		return label
	}
	return id
}

// Zones returns the table as a slice ordered by id.
func (z ZoneTable) Zones() []types.Zone {
	zones := make([]types.Zone, 0, len(z))
	for id, label := range z {
		zones = append(zones, types.Zone{ID: id, Label: label})
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones
}
