package analytics

import (
	"context"
	"sync"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
)

// MemoryProjection keeps records in process memory.
type MemoryProjection struct {
	mu      sync.RWMutex
	records map[id.EventID]Record
	counts  map[models.EventType]int64
}

func NewMemoryProjection() *MemoryProjection {
	return &MemoryProjection{
		records: make(map[id.EventID]Record),
		counts:  make(map[models.EventType]int64),
	}
}

func (p *MemoryProjection) Append(_ context.Context, rec Record) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[rec.EventID]; ok {
		return false, nil
	}
	p.records[rec.EventID] = rec
	p.counts[rec.EventType]++
	return true, nil
}

func (p *MemoryProjection) Counts(_ context.Context) (map[models.EventType]int64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[models.EventType]int64, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out, nil
}

// Get returns the record for eventID, if present.
func (p *MemoryProjection) Get(eventID id.EventID) (Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[eventID]
	return rec, ok
}
