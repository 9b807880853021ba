package port_reader

import (
	"io"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
	"github.com/vbusmon/vbus_solar_monitor/pkg/latest"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
)

// VBusReader owns the serial port and the frame loop. It is the only
// writer of the latest-reading store.
type VBusReader struct {
	serialConfig config.SerialConfig
	device       string
	schema       *schema.Schema
	store        *latest.Store

	serialPort io.ReadWriteCloser
}
