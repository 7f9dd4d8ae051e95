package outline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/databases"
)

// Manager caches one Outline per open document so repeated requests reuse
// the loaded collection instead of re-reading the store.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Outline
	db       databases.CardDatabase
	docDB    databases.DocumentDatabase
}

// NewManager creates an empty manager over the given stores.
func NewManager(db databases.CardDatabase, docDB databases.DocumentDatabase) *Manager {
	return &Manager{
		sessions: map[string]*Outline{},
		db:       db,
		docDB:    docDB,
	}
}

// GetOrCreate returns the outline for the document, loading it from the
// store on first access.
func (m *Manager) GetOrCreate(ctx context.Context, documentID string) (*Outline, error) {
	m.mu.Lock()
	if o, ok := m.sessions[documentID]; ok {
		m.mu.Unlock()
		return o, nil
	}
	o := New(documentID, m.db, m.docDB)
	m.sessions[documentID] = o
	m.mu.Unlock()

	if err := o.Load(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, documentID)
		m.mu.Unlock()
		return nil, err
	}
	return o, nil
}

// Get returns the outline if one is already open, else nil.
func (m *Manager) Get(documentID string) *Outline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[documentID]
}

// Close drops the outline for the document.
func (m *Manager) Close(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, documentID)
}

// EvictIdle drops outlines untouched for longer than ttl and returns the
// number evicted.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, o := range m.sessions {
		if o.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		zap.S().Infow("evicted idle outlines", "count", evicted)
	}
	return evicted
}
