package topicmgr

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Registry stores catalogued topics keyed by "name@version".
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// RegistryEntry represents a topic entry in the registry with metadata
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewRegistry creates a new topic registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a topic to the registry
func (r *Registry) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := topic.Key()
	if _, exists := r.entries[key]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   key,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", key),
		}
	}

	r.entries[key] = &RegistryEntry{
		Topic:        topic,
		RegisteredAt: time.Now(),
	}
	return nil
}

// Lookup retrieves a topic by catalog key
func (r *Registry) Lookup(key string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[key]
	if !exists {
		return nil, false
	}
	return entry.Topic, true
}

// GetEntry retrieves a copy of a registry entry by catalog key
func (r *Registry) GetEntry(key string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[key]
	if !exists {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// List returns all registered topics ordered by name, then version
func (r *Registry) List() []Topic {
	return r.filter(func(Topic) bool { return true })
}

// ListByModule returns topics for a specific module
func (r *Registry) ListByModule(module string) []Topic {
	return r.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns topics for a specific scope
func (r *Registry) ListByScope(scope TopicScope) []Topic {
	return r.filter(func(t Topic) bool { return t.Scope() == scope })
}

// ListByName returns every registered version of name
func (r *Registry) ListByName(name string) []Topic {
	return r.filter(func(t Topic) bool { return t.Name() == name })
}

func (r *Registry) filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(topics, func(a, b Topic) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.Version(), b.Version()))
	})
	return topics
}

// Count returns the number of registered topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all registered topics (primarily for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*RegistryEntry)
}

// GetStats returns registry statistics
func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalTopics:     len(r.entries),
		ModuleBreakdown: make(map[string]int),
	}
	for _, entry := range r.entries {
		if entry.Topic.ReplayLast() {
			stats.ReplayingTopics++
		}
		switch entry.Topic.Scope() {
		case ScopeFramework:
			stats.FrameworkTopics++
		case ScopeModule:
			stats.ModuleTopics++
			stats.ModuleBreakdown[entry.Topic.Module()]++
		}
	}
	return stats
}

// RegistryStats provides statistics about the registry
type RegistryStats struct {
	TotalTopics     int            `json:"total_topics" yaml:"total_topics"`
	FrameworkTopics int            `json:"framework_topics" yaml:"framework_topics"`
	ModuleTopics    int            `json:"module_topics" yaml:"module_topics"`
	ReplayingTopics int            `json:"replaying_topics" yaml:"replaying_topics"`
	ModuleBreakdown map[string]int `json:"module_breakdown" yaml:"module_breakdown"`
}
