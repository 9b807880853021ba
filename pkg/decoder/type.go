package decoder

import (
	"bytes"
	"encoding/json"
)

// Reading is the decode result of one frame: device and timestamp, then
// one value per active sensor in schema order. A Reading is immutable
// once built and replaces the previous one wholesale.
type Reading struct {
	Device    string
	Timestamp string

	names  []string
	values map[string]any
}

// SensorNames returns the sensor entries in schema order. Device and
// timestamp are not included.
func (r *Reading) SensorNames() []string {
	return r.names
}

// Value returns the decoded value for a sensor name.
func (r *Reading) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Reading) add(name string, value any) {
	r.names = append(r.names, name)
	r.values[name] = value
}

// MarshalJSON renders the reading as a flat object with a stable field
// order: device, timestamp, then sensors in schema order.
func (r *Reading) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(name string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := writeField("device", r.Device); err != nil {
		return nil, err
	}
	if err := writeField("timestamp", r.Timestamp); err != nil {
		return nil, err
	}
	for _, name := range r.names {
		if err := writeField(name, r.values[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
