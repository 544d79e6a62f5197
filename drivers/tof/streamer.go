package tof

import (
	"sync"

	"tofcam-go/types"
)

// SimStreamer is a Streamer with no capture pipeline behind it. The simulator
// and tests toggle it with Start and Stop.
type SimStreamer struct {
	mu      sync.Mutex
	running bool
	size    types.FrameSize
}

var _ Streamer = (*SimStreamer)(nil)

func (s *SimStreamer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SimStreamer) SetFrameSize(fs types.FrameSize) error {
	s.mu.Lock()
	s.size = fs
	s.mu.Unlock()
	return nil
}

func (s *SimStreamer) FrameSize() types.FrameSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *SimStreamer) Start() { s.setRunning(true) }
func (s *SimStreamer) Stop()  { s.setRunning(false) }

func (s *SimStreamer) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}
