package config

type SolarAPIConfig struct {
	Device   DeviceConfig   `toml:"device"`
	Serial   SerialConfig   `toml:"serial"`
	Server   ServerConfig   `toml:"server"`
	Inverter InverterConfig `toml:"inverter"`
	Sensors  []SensorEntry  `toml:"sensors"`
}

type DeviceConfig struct {
	Name string `toml:"name"`
}

type SerialConfig struct {
	Port     string `toml:"port"`
	Baud     uint   `toml:"baud"`
	DataBits uint   `toml:"data_bits"`
	StopBits uint   `toml:"stop_bits"`
	// Parity is N, E or O.
	Parity string `toml:"parity"`
}

type ServerConfig struct {
	ListenPort int `toml:"listen_port"`
}

// InverterConfig is optional. An empty IP disables the /solar endpoint.
type InverterConfig struct {
	Ip         string `toml:"ip"`
	ModbusPort int    `toml:"modbus_port"`
}

// SensorEntry is one raw sensor block from the config file. Entries are
// turned into the validated, enabled-only schema at startup.
type SensorEntry struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Kind        string  `toml:"kind"`
	Offset      int     `toml:"offset"`
	Size        int     `toml:"size"`
	Factor      float64 `toml:"factor"`
	Position    int     `toml:"position"`
	Metrics     string  `toml:"metrics"`
	Enabled     bool    `toml:"enabled"`
}
