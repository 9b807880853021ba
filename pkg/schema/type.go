package schema

// Kind is the decode recipe of a sensor.
type Kind uint8

const (
	KindRaw Kind = iota
	KindTemperature
	KindBit
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindBit:
		return "bit"
	case KindTime:
		return "time"
	default:
		return "raw"
	}
}

// ParseKind maps a config kind string to its Kind. Anything unrecognized
// reads as raw.
func ParseKind(s string) Kind {
	switch s {
	case "temperature":
		return KindTemperature
	case "bit":
		return KindBit
	case "time":
		return KindTime
	default:
		return KindRaw
	}
}

// SensorDefinition is one enabled sensor with its decode recipe and
// presentation metadata.
type SensorDefinition struct {
	Name        string
	Kind        Kind
	Offset      int
	Size        int
	Position    int
	Factor      float64
	Description string
	MetricKind  string
}

// Schema is the ordered, enabled-only sensor list. Immutable after load
// and safe to share without synchronization.
type Schema struct {
	sensors []SensorDefinition
	byName  map[string]int
}
