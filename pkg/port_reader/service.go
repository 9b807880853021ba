package port_reader

import (
	"bufio"
	"context"
	"fmt"
	"log"

	"github.com/jacobsa/go-serial/serial"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
	"github.com/vbusmon/vbus_solar_monitor/pkg/latest"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
	"github.com/vbusmon/vbus_solar_monitor/pkg/vbus"
)

// Initialize a new VBusReader client.
func NewVBusReader(serialConfig config.SerialConfig, device string, s *schema.Schema, store *latest.Store) *VBusReader {
	return &VBusReader{
		serialConfig: serialConfig,
		device:       device,
		schema:       s,
		store:        store,
	}
}

// Open the connection to the VBus serial port.
func (r *VBusReader) Connect() error {
	options := serial.OpenOptions{
		PortName:        r.serialConfig.Port,
		BaudRate:        r.serialConfig.Baud,
		DataBits:        r.serialConfig.DataBits,
		StopBits:        r.serialConfig.StopBits,
		ParityMode:      parityMode(r.serialConfig.Parity),
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	r.serialPort = port
	log.Printf("Connected to VBus on %s", r.serialConfig.Port)
	return nil
}

func (r *VBusReader) Disconnect() {
	if r.serialPort != nil {
		r.serialPort.Close()
		log.Println("Disconnected from VBus port")
	}
}

func parityMode(parity string) serial.ParityMode {
	switch parity {
	case "E":
		return serial.PARITY_EVEN
	case "O":
		return serial.PARITY_ODD
	default:
		return serial.PARITY_NONE
	}
}

// Start the frame loop. Runs in a goroutine; handleReading also runs in
// a goroutine. handleError fires once when the transport fails, which is
// fatal for the loop. Cancelling ctx closes the port to unblock the
// pending read and stops the loop cleanly.
func (r *VBusReader) StartReading(
	ctx context.Context,
	handleReading func(reading *decoder.Reading),
	handleError func(error),
) {
	go func() {
		go func() {
			<-ctx.Done()
			r.Disconnect()
		}()

		err := r.run(ctx, handleReading)
		if err != nil && ctx.Err() == nil {
			handleError(err)
		}
	}()
}

func (r *VBusReader) run(ctx context.Context, handleReading func(reading *decoder.Reading)) error {
	if r.serialPort == nil {
		return fmt.Errorf("serial port not connected")
	}

	br := bufio.NewReader(r.serialPort)

	// The stream may start mid-frame; discard through the first delimiter.
	if _, err := br.ReadBytes(vbus.FrameDelimiter); err != nil {
		return fmt.Errorf("sync to frame start: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := br.ReadBytes(vbus.FrameDelimiter)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		// Reconstitute the frame with its leading delimiter. The trailing
		// delimiter starts the next frame and is not part of this one.
		frame := make([]byte, 0, len(chunk)+1)
		frame = append(frame, vbus.FrameDelimiter)
		frame = append(frame, chunk...)
		frame = frame[:len(frame)-1]

		if !vbus.ValidFrame(frame) {
			continue
		}

		reading, err := decoder.Decode(frame, r.schema, r.device)
		if err != nil {
			// Schema reaching past the frame means misconfiguration.
			log.Printf("Discarding frame: %v", err)
			continue
		}

		r.store.Set(reading)
		if handleReading != nil {
			go handleReading(reading)
		}
	}
}
