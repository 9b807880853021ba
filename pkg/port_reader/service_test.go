package port_reader

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
	"github.com/vbusmon/vbus_solar_monitor/pkg/latest"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
	"github.com/vbusmon/vbus_solar_monitor/pkg/vbus"
)

const sampleHex = "aa10007842100001071d39007a01014a47023822045800000000007f44060000013400000000007f00000003007c4a0000000134"

type fakePort struct {
	*bytes.Reader
	closed bool
}

func (f *fakePort) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakePort) Close() error                { f.closed = true; return nil }

// stream builds a raw byte stream: leading garbage, then each frame's
// payload followed by the delimiter that opens the next frame.
func stream(garbage []byte, payloads ...[]byte) io.ReadWriteCloser {
	var buf bytes.Buffer
	buf.Write(garbage)
	buf.WriteByte(vbus.FrameDelimiter)
	for _, p := range payloads {
		buf.Write(p)
		buf.WriteByte(vbus.FrameDelimiter)
	}
	return &fakePort{Reader: bytes.NewReader(buf.Bytes())}
}

func newTestReader(t *testing.T, port io.ReadWriteCloser, entries ...config.SensorEntry) (*VBusReader, *latest.Store) {
	t.Helper()
	if entries == nil {
		entries = []config.SensorEntry{
			{Name: "packetLen", Kind: "raw", Offset: 0, Size: 1, Enabled: true},
		}
	}
	s, err := schema.FromEntries(entries)
	require.NoError(t, err)
	store := latest.NewStore()
	r := NewVBusReader(config.SerialConfig{}, "solar", s, store)
	r.serialPort = port
	return r, store
}

func samplePayload(t *testing.T) []byte {
	t.Helper()
	buf, err := hex.DecodeString(sampleHex)
	require.NoError(t, err)
	return buf[1:] // frames on the wire carry their delimiter up front
}

func TestRunDecodesValidFrame(t *testing.T) {
	r, store := newTestReader(t, stream([]byte{0x01, 0x02}, samplePayload(t)))

	err := r.run(context.Background(), nil)
	assert.Error(t, err, "stream end is a fatal transport error")

	reading := store.Get()
	require.NotNil(t, reading)
	assert.Equal(t, "solar", reading.Device)
	v, ok := reading.Value("packetLen")
	require.True(t, ok)
	assert.Equal(t, int64(16), v)
}

func TestRunDiscardsShortFrames(t *testing.T) {
	short := []byte{0x10, 0x00, 0x78} // four bytes with the delimiter
	r, store := newTestReader(t, stream(nil, short))

	err := r.run(context.Background(), nil)
	assert.Error(t, err)
	assert.Nil(t, store.Get(), "short frames never reach the decoder")
}

func TestRunDiscardsWrongVersion(t *testing.T) {
	wrongVersion := []byte{0x10, 0x00, 0x78, 0x42, 0x20, 0x01, 0x07}
	r, store := newTestReader(t, stream(nil, wrongVersion))

	err := r.run(context.Background(), nil)
	assert.Error(t, err)
	assert.Nil(t, store.Get())
}

func TestRunKeepsLastValidReading(t *testing.T) {
	first := samplePayload(t)
	second := make([]byte, len(first))
	copy(second, first)
	second[0] = 0x42 // different packetLen field

	short := []byte{0x01}
	r, store := newTestReader(t, stream(nil, first, short, second))

	err := r.run(context.Background(), nil)
	assert.Error(t, err)

	reading := store.Get()
	require.NotNil(t, reading)
	v, _ := reading.Value("packetLen")
	assert.Equal(t, int64(0x42), v, "the newest valid frame wins")
}

func TestRunDiscardsFrameOnDecodeError(t *testing.T) {
	// Sensor reaching past the frame: logged, frame dropped, loop survives.
	r, store := newTestReader(t, stream(nil, samplePayload(t)),
		config.SensorEntry{Name: "beyond", Kind: "raw", Offset: 4096, Size: 2, Enabled: true})

	err := r.run(context.Background(), nil)
	assert.Error(t, err, "only the stream end errors, not the decode failure")
	assert.Nil(t, store.Get(), "a failed decode must not touch the store")
}

func TestRunInvokesHandler(t *testing.T) {
	r, _ := newTestReader(t, stream(nil, samplePayload(t)))

	handled := make(chan struct{})
	err := r.run(context.Background(), func(reading *decoder.Reading) {
		close(handled)
	})
	assert.Error(t, err)

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("reading handler was not invoked")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, store := newTestReader(t, stream(nil, samplePayload(t)))
	err := r.run(ctx, nil)
	assert.NoError(t, err, "cancellation is a clean stop, not an error")
	assert.Nil(t, store.Get())
}

func TestRunNotConnected(t *testing.T) {
	r, _ := newTestReader(t, nil)
	r.serialPort = nil
	err := r.run(context.Background(), nil)
	assert.Error(t, err)
}
