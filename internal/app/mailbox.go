package app

import (
	"context"
	"sync"
)

// Mailbox holds the most recent encoded frame. Publishing overwrites the
// previous frame; slow readers skip frames instead of queueing them.
type Mailbox struct {
	mu     sync.Mutex
	data   []byte
	seq    uint64
	notify chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{})}
}

// Publish stores data as the latest frame and wakes all waiting readers.
func (m *Mailbox) Publish(data []byte) {
	m.mu.Lock()
	m.data = data
	m.seq++
	close(m.notify)
	m.notify = make(chan struct{})
	m.mu.Unlock()
}

// Latest returns the current frame and its sequence number. A zero sequence
// means nothing has been published yet.
func (m *Mailbox) Latest() ([]byte, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.seq
}

// Next blocks until a frame newer than after is available or ctx is done.
func (m *Mailbox) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		m.mu.Lock()
		if m.seq > after {
			data, seq := m.data, m.seq
			m.mu.Unlock()
			return data, seq, nil
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}
