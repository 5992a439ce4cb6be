package followup

import (
	"context"
	"sort"
	"sync"

	id "patientcore/pkg/domain"
)

// MemoryBacklog keeps one entry per patient; re-recording refreshes it.
type MemoryBacklog struct {
	mu      sync.Mutex
	entries map[id.PatientID]BacklogEntry
}

func NewMemoryBacklog() *MemoryBacklog {
	return &MemoryBacklog{entries: make(map[id.PatientID]BacklogEntry)}
}

func (b *MemoryBacklog) Record(_ context.Context, entry BacklogEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[entry.PatientID] = entry
	return nil
}

// Pending returns entries oldest first.
func (b *MemoryBacklog) Pending(_ context.Context) ([]BacklogEntry, error) {
	b.mu.Lock()
	out := make([]BacklogEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (b *MemoryBacklog) Resolve(_ context.Context, patientID id.PatientID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, patientID)
	return nil
}

// MemoryDeadLetters keeps the most recent dead letters up to a cap.
type MemoryDeadLetters struct {
	mu      sync.Mutex
	max     int
	letters []DeadLetter
}

func NewMemoryDeadLetters(capacity int) *MemoryDeadLetters {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryDeadLetters{max: capacity}
}

func (d *MemoryDeadLetters) RecordDeadLetter(_ context.Context, letter DeadLetter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.letters = append(d.letters, letter)
	if over := len(d.letters) - d.max; over > 0 {
		d.letters = append([]DeadLetter(nil), d.letters[over:]...)
	}
	return nil
}

// List returns up to limit letters, newest first. limit <= 0 returns all.
func (d *MemoryDeadLetters) List(_ context.Context, limit int) ([]DeadLetter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.letters)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]DeadLetter, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, d.letters[i])
	}
	return out, nil
}
