package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/vbusmon/vbus_solar_monitor/pkg/pathing"
)

var ActiveSolarAPIConfig *SolarAPIConfig

func LoadSolarAPIConfig() error {
	if err := pathing.EnsureDirs(); err != nil {
		return err
	}
	configPath := filepath.Join(pathing.GetConfigDir(), "solar_api.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultSolarAPIConfig()
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		ActiveSolarAPIConfig = cfg
		return nil
	}

	// Load existing config
	var config SolarAPIConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return err
	}
	ActiveSolarAPIConfig = &config
	return nil
}

func defaultSolarAPIConfig() *SolarAPIConfig {
	return &SolarAPIConfig{
		Device: DeviceConfig{Name: "unknown"},
		Serial: SerialConfig{
			Port:     "/dev/ttyS0",
			Baud:     9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
		},
		Server: ServerConfig{ListenPort: 8088},
		Inverter: InverterConfig{
			Ip:         "",
			ModbusPort: 502,
		},
		Sensors: []SensorEntry{
			{
				Name:        "temp1",
				Description: "Collector Temperature",
				Kind:        "temperature",
				Offset:      9,
				Size:        2,
				Factor:      0.1,
				Metrics:     "gauge",
				Enabled:     false,
			},
		},
	}
}

// applyDefaults fills unset sensor fields the way a missing key in the
// config file is meant to read.
func (c *SolarAPIConfig) applyDefaults() {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 9600
	}
	if c.Serial.DataBits == 0 {
		c.Serial.DataBits = 8
	}
	if c.Serial.StopBits == 0 {
		c.Serial.StopBits = 1
	}
	if c.Serial.Parity == "" {
		c.Serial.Parity = "N"
	}
	for i := range c.Sensors {
		s := &c.Sensors[i]
		if s.Size == 0 {
			s.Size = 1
		}
		if s.Factor == 0 {
			s.Factor = 0.1
		}
		if s.Metrics == "" {
			s.Metrics = "gauge"
		}
		if s.Kind == "" {
			s.Kind = "raw"
		}
	}
}

// Validate rejects bad config before the reader or server start.
// Sensor-level constraints are enforced when the schema is built.
func (c *SolarAPIConfig) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must be set")
	}
	if c.Server.ListenPort < 1 || c.Server.ListenPort > 65535 {
		return fmt.Errorf("server.listen_port %d out of range 1-65535", c.Server.ListenPort)
	}
	switch c.Serial.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity %q must be N, E or O", c.Serial.Parity)
	}
	return nil
}

// InverterEnabled reports whether the optional inverter poll is configured.
func (c *SolarAPIConfig) InverterEnabled() bool {
	return c.Inverter.Ip != "" && c.Inverter.ModbusPort != 0
}
