// Package publisher renders the latest reading into the two wire
// formats served over HTTP. Both renderers are read-only over the
// reading and the schema.
package publisher

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
)

// RenderJSON renders the reading as an indented flat JSON object:
// device, timestamp, then one field per sensor in schema order.
func RenderJSON(r *decoder.Reading) ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// RenderMetrics renders the reading in metrics-exposition text form.
// Every sensor entry becomes a HELP line, a TYPE line and a value line;
// sensors the schema no longer knows are skipped.
func RenderMetrics(r *decoder.Reading, s *schema.Schema) string {
	var b strings.Builder
	for _, name := range r.SensorNames() {
		def, ok := s.Lookup(name)
		if !ok {
			continue
		}
		value, ok := r.Value(name)
		if !ok {
			continue
		}
		b.WriteString("# HELP " + name + " " + def.Description + "\n")
		b.WriteString("# TYPE " + name + " " + def.MetricKind + "\n")
		b.WriteString(name + " " + formatValue(value) + "\n")
	}
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case nil:
		return "null"
	default:
		return ""
	}
}
