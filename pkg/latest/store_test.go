package latest

import (
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
)

func testReading(t *testing.T, device string) *decoder.Reading {
	t.Helper()
	buf, err := hex.DecodeString("aa10007842100001071d39007a01014a47023822045800000000007f44060000013400000000007f00000003007c4a0000000134")
	require.NoError(t, err)
	s, err := schema.FromEntries([]config.SensorEntry{
		{Name: "packetLen", Kind: "raw", Offset: 0, Size: 1, Enabled: true},
	})
	require.NoError(t, err)
	r, err := decoder.Decode(buf, s, device)
	require.NoError(t, err)
	return r
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get())
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore()

	first := testReading(t, "first")
	s.Set(first)
	assert.Same(t, first, s.Get())

	second := testReading(t, "second")
	s.Set(second)
	assert.Same(t, second, s.Get(), "a new reading replaces the old one wholesale")
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	readings := []*decoder.Reading{
		testReading(t, "a"),
		testReading(t, "b"),
		testReading(t, "c"),
	}

	var wg sync.WaitGroup
	done := make(chan struct{})

	// Single writer cycling through readings.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Set(readings[i%len(readings)])
		}
		close(done)
	}()

	// Many readers; every observed reading must be one of the complete
	// readings ever written, never a mixture.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got := s.Get()
				if got == nil {
					continue
				}
				assert.Contains(t, []string{"a", "b", "c"}, got.Device)
				v, ok := got.Value("packetLen")
				assert.True(t, ok)
				assert.Equal(t, int64(16), v)
			}
		}()
	}

	wg.Wait()
}
