// Package latest holds the single most recently decoded reading.
package latest

import (
	"sync"

	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
)

// Store is a single-slot container written by the frame reader and read
// by every publisher. A nil reading means nothing has been decoded yet.
// Readings are immutable, so handing out the pointer is safe.
type Store struct {
	mu      sync.RWMutex
	reading *decoder.Reading
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the current reading wholesale.
func (s *Store) Set(r *decoder.Reading) {
	s.mu.Lock()
	s.reading = r
	s.mu.Unlock()
}

// Get returns the current reading, or nil before the first decode.
func (s *Store) Get() *decoder.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading
}
