// Package meshstore retains uploaded mesh bytes between the dimensions
// request and the slicing request. Entries are keyed by upload id so
// concurrent uploads never overwrite each other; the most recent upload is
// additionally reachable as the "latest" entry for callers that track no id.
package meshstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one retained mesh upload.
type Entry struct {
	ID       string
	FileName string
	Ext      string
	Data     []byte
}

type record struct {
	entry   Entry
	expires time.Time
}

// Store is a TTL-bounded keyed holder of uploaded meshes.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]record
	latest  string
	now     func() time.Time // stubbed in tests
}

// New creates a store whose entries expire a fixed TTL after their write.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		records: make(map[string]record),
		now:     time.Now,
	}
}

// Put retains a copy of the mesh bytes and returns the generated upload id.
// The new entry becomes the store's latest.
func (s *Store) Put(fileName, ext string, data []byte) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = record{
		entry: Entry{
			ID:       id,
			FileName: fileName,
			Ext:      ext,
			Data:     append([]byte(nil), data...),
		},
		expires: s.now().Add(s.ttl),
	}
	s.latest = id

	return id
}

// Get returns a copy of a retained mesh. An empty id resolves to the latest
// upload. Expired entries are treated as absent.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = s.latest
	}

	rec, ok := s.records[id]
	if !ok {
		return Entry{}, false
	}

	if s.now().After(rec.expires) {
		delete(s.records, id)
		return Entry{}, false
	}

	// Copy on read: the caller may hold the bytes across a slow slicing
	// job while the entry is overwritten or expired underneath it.
	entry := rec.entry
	entry.Data = append([]byte(nil), rec.entry.Data...)

	return entry, true
}

// Clear removes one entry. A cleared latest id leaves no implicit latest.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)

	if s.latest == id {
		s.latest = ""
	}
}

// Len reports the number of retained entries, including not-yet-swept
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// EvictExpired drops all entries past their TTL and reports how many.
func (s *Store) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0

	for id, rec := range s.records {
		if s.now().After(rec.expires) {
			delete(s.records, id)

			if s.latest == id {
				s.latest = ""
			}

			evicted++
		}
	}

	return evicted
}

// Janitor sweeps expired entries on an interval until the context ends.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.EvictExpired(); evicted > 0 {
				slog.Info("Evicted expired meshes", "count", evicted)
			}
		}
	}
}
