package messenger

import "sync"

// MemoryDirectory is an in-process Directory backed by a map.
type MemoryDirectory struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{channels: make(map[string]Channel)}
}

// Register associates a channel with a participant, replacing any previous one.
func (d *MemoryDirectory) Register(participantID string, ch Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[participantID] = ch
}

// Unregister removes the participant's channel if it is still ch.
func (d *MemoryDirectory) Unregister(participantID string, ch Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.channels[participantID] == ch {
		delete(d.channels, participantID)
	}
}

// Lookup implements Directory.
func (d *MemoryDirectory) Lookup(participantID string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[participantID]
	return ch, ok
}
