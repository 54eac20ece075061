// Package enrichment keeps per-recommendation badge metadata that arrives on
// the stream's side channel.
package enrichment

import (
	"sort"
	"sync"

	"bigsis-chat/internal/entity"

	"github.com/patrickmn/go-cache"
)

// Patch is a partial update for one recommendation. Nil fields are absent.
type Patch struct {
	HasPublishedSheet  *bool
	TrustScore         *float64
	LearningInProgress *bool
}

// Merger applies partial updates without ever erasing a field that an update
// does not mention, and never removes a key. Entries live until Reset.
type Merger struct {
	mu    sync.Mutex
	store *cache.Cache
}

func NewMerger() *Merger {
	return &Merger{
		store: cache.New(cache.NoExpiration, 0),
	}
}

// Merge applies every patch in update.
func (m *Merger) Merge(update map[string]Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, patch := range update {
		entry := m.get(id)
		if patch.HasPublishedSheet != nil {
			entry.HasPublishedSheet = *patch.HasPublishedSheet
		}
		if patch.TrustScore != nil {
			v := *patch.TrustScore
			entry.TrustScore = &v
		}
		if patch.LearningInProgress != nil {
			v := *patch.LearningInProgress
			entry.LearningInProgress = &v
		}
		m.store.Set(id, entry, cache.NoExpiration)
	}
}

// Get returns the entry for id.
func (m *Merger) Get(id string) (entity.EnrichmentEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if x, found := m.store.Get(id); found {
		return clone(x.(entity.EnrichmentEntry)), true
	}
	return entity.EnrichmentEntry{}, false
}

// Snapshot copies every entry.
func (m *Merger) Snapshot() map[string]entity.EnrichmentEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.store.Items()
	out := make(map[string]entity.EnrichmentEntry, len(items))
	for id, item := range items {
		out[id] = clone(item.Object.(entity.EnrichmentEntry))
	}
	return out
}

// Keys lists recommendation ids in lexical order.
func (m *Merger) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, m.store.ItemCount())
	for id := range m.store.Items() {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// AnyLearning reports whether some recommendation is still being learned.
func (m *Merger) AnyLearning() bool {
	for _, e := range m.Snapshot() {
		if e.IsLearning() {
			return true
		}
	}
	return false
}

func (m *Merger) Len() int {
	return m.store.ItemCount()
}

// Reset discards every entry. Only a conversation reset calls it.
func (m *Merger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Flush()
}

func (m *Merger) get(id string) entity.EnrichmentEntry {
	if x, found := m.store.Get(id); found {
		return x.(entity.EnrichmentEntry)
	}
	return entity.EnrichmentEntry{}
}

func clone(e entity.EnrichmentEntry) entity.EnrichmentEntry {
	if e.TrustScore != nil {
		v := *e.TrustScore
		e.TrustScore = &v
	}
	if e.LearningInProgress != nil {
		v := *e.LearningInProgress
		e.LearningInProgress = &v
	}
	return e
}
