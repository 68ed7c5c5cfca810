package sse

import (
	"context"
	"sync"

	"ms-checkin/internal/models"
)

// ScanFeed broadcasts accepted scans to connected dashboard clients.
// There is one venue-wide feed; every accepted gate scan and sale is
// pushed to every subscriber.
type ScanFeed struct {
	mu      sync.RWMutex
	clients []chan models.ScanRecord
}

func NewScanFeed() *ScanFeed {
	return &ScanFeed{}
}

// Subscribe registers a client channel and removes it when the context
// is done (client disconnected).
func (f *ScanFeed) Subscribe(ctx context.Context) chan models.ScanRecord {
	clientChan := make(chan models.ScanRecord, 10)

	f.mu.Lock()
	f.clients = append(f.clients, clientChan)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(clientChan)
	}()

	return clientChan
}

// Emit broadcasts a record to all subscribers. Sends are non-blocking:
// a client with a full buffer misses the record rather than stalling
// the admission path.
func (f *ScanFeed) Emit(record models.ScanRecord) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, clientChan := range f.clients {
		select {
		case clientChan <- record:
		default:
			// Buffer full, skip this client
		}
	}
}

func (f *ScanFeed) remove(clientChan chan models.ScanRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, ch := range f.clients {
		if ch == clientChan {
			f.clients = append(f.clients[:i], f.clients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

// ClientCount returns the number of connected feed clients.
func (f *ScanFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}
