package schema

import (
	"fmt"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
)

// FromEntries builds the active schema from raw config entries. Disabled
// sensors are dropped entirely; everything that remains is validated, and
// any invalid entry fails the load.
func FromEntries(entries []config.SensorEntry) (*Schema, error) {
	s := &Schema{
		byName: make(map[string]int),
	}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		def := SensorDefinition{
			Name:        e.Name,
			Kind:        ParseKind(e.Kind),
			Offset:      e.Offset,
			Size:        e.Size,
			Position:    e.Position,
			Factor:      e.Factor,
			Description: e.Description,
			MetricKind:  e.Metrics,
		}
		if err := validate(def); err != nil {
			return nil, fmt.Errorf("sensor %q: %w", e.Name, err)
		}
		if _, exists := s.byName[def.Name]; exists {
			return nil, fmt.Errorf("sensor %q: duplicate name", def.Name)
		}
		s.byName[def.Name] = len(s.sensors)
		s.sensors = append(s.sensors, def)
	}
	return s, nil
}

func validate(def SensorDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if def.Offset < 0 {
		return fmt.Errorf("offset %d must not be negative", def.Offset)
	}
	if def.Size < 1 || def.Size > 8 {
		return fmt.Errorf("size %d out of range 1-8", def.Size)
	}
	if def.Kind == KindBit && (def.Position < 0 || def.Position > 7) {
		return fmt.Errorf("position %d out of range 0-7", def.Position)
	}
	return nil
}

// Sensors returns the definitions in config-file order.
func (s *Schema) Sensors() []SensorDefinition {
	return s.sensors
}

// Lookup returns the definition for name.
func (s *Schema) Lookup(name string) (SensorDefinition, bool) {
	i, ok := s.byName[name]
	if !ok {
		return SensorDefinition{}, false
	}
	return s.sensors[i], true
}

func (s *Schema) Len() int {
	return len(s.sensors)
}
