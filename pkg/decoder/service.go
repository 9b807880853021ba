// Package decoder turns one delimited frame buffer into a Reading using
// the active sensor schema.
package decoder

import (
	"fmt"
	"time"

	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
	"github.com/vbusmon/vbus_solar_monitor/pkg/vbus"
)

// Decode extracts every schema sensor from frame. The frame must already
// have passed the length/version check; a sensor reaching past the end of
// the buffer indicates a frame/schema mismatch and comes back as an
// error, never a crash.
func Decode(frame []byte, s *schema.Schema, device string) (reading *Reading, err error) {
	defer func() {
		if r := recover(); r != nil {
			reading = nil
			err = fmt.Errorf("decode frame of %d bytes: %v", len(frame), r)
		}
	}()

	packet := vbus.Packet(frame)
	reading = &Reading{
		Device:    device,
		Timestamp: time.Now().Truncate(time.Second).Format(time.RFC3339),
		values:    make(map[string]any, s.Len()),
	}

	for _, def := range s.Sensors() {
		var value any
		switch def.Kind {
		case schema.KindTemperature:
			value = packet.TemperatureValue(def.Offset, def.Size, def.Factor)
		case schema.KindBit:
			value = packet.BitValue(def.Offset, def.Position)
		case schema.KindTime:
			value = packet.TimeValue(def.Offset, def.Size)
		default: // KindRaw
			value = packet.RawValue(def.Offset, def.Size)
		}
		reading.add(def.Name, value)
	}
	return reading, nil
}
