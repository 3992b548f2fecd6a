package topicmgr

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Manager provides the main API of the topic catalog
type Manager struct {
	registry  *Registry
	validator *Validator
	mu        sync.RWMutex
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// DefineFramework creates a shell topic
func DefineFramework(def Definition) Topic {
	def.Scope = ScopeFramework
	def.Module = ""
	return newTypedTopic(def)
}

// DefineModule creates a topic owned by a micro frontend
func DefineModule(def Definition) Topic {
	def.Scope = ScopeModule
	return newTypedTopic(def)
}

// Register validates a topic and adds it to the catalog
func (m *Manager) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validator.ValidateDefinition(topic); err != nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   topic.Key(),
			Module:  topic.Module(),
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %v: %v", topic, err))
	}
}

// Get retrieves a topic by name and version
func (m *Manager) Get(name string, version int) (Topic, bool) {
	return m.Lookup(Key(name, version))
}

// Lookup retrieves a topic by "name@version" key
func (m *Manager) Lookup(key string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Lookup(key)
}

// Require is Get that reports a missing topic as a TopicError
func (m *Manager) Require(name string, version int) (Topic, error) {
	topic, ok := m.Get(name, version)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   Key(name, version),
			Message: fmt.Sprintf("topic not found: %s", Key(name, version)),
		}
	}
	return topic, nil
}

// List returns all registered topics ordered by name, then version
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.List()
}

// ListByModule returns topics for a specific module
func (m *Manager) ListByModule(module string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByModule(module)
}

// ListByScope returns topics for a specific scope (framework or module)
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByScope(scope)
}

// ListFrameworkTopics returns all shell topics
func (m *Manager) ListFrameworkTopics() []Topic {
	return m.ListByScope(ScopeFramework)
}

// Versions returns the registered versions of name in ascending order
func (m *Manager) Versions(name string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := m.registry.ListByName(name)
	versions := make([]int, 0, len(topics))
	for _, t := range topics {
		versions = append(versions, t.Version())
	}
	return versions
}

// ListModules returns all module names that have registered topics
func (m *Manager) ListModules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var modules []string
	for _, topic := range m.registry.ListByScope(ScopeModule) {
		if topic.Module() != "" && !slices.Contains(modules, topic.Module()) {
			modules = append(modules, topic.Module())
		}
	}
	slices.Sort(modules)
	return modules
}

// FindTopics returns topics whose name matches pattern. A trailing '*'
// matches any suffix and "*" alone matches everything.
func (m *Manager) FindTopics(pattern string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Topic
	for _, topic := range m.registry.List() {
		if matchesPattern(topic.Name(), pattern) {
			matches = append(matches, topic)
		}
	}
	return matches
}

// ValidateTopicName checks if a topic name is valid without creating a topic
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// ValidateDefinition checks a definition without registering it
func (m *Manager) ValidateDefinition(def Definition) error {
	var topic Topic
	switch def.Scope {
	case ScopeFramework:
		topic = DefineFramework(def)
	case ScopeModule:
		topic = DefineModule(def)
	default:
		return &TopicError{
			Type:    ErrorInvalidScope,
			Topic:   Key(def.Name, def.Version),
			Module:  def.Module,
			Message: fmt.Sprintf("invalid scope: %q", def.Scope),
		}
	}
	if err := m.validator.ValidateDefinition(topic); err != nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   topic.Key(),
			Module:  topic.Module(),
			Message: "topic validation failed",
			Cause:   err,
		}
	}
	return nil
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Count()
}

// GetStats returns catalog statistics
func (m *Manager) GetStats() RegistryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.GetStats()
}

// Reset removes all registered topics (primarily for testing)
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.Reset()
}

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide catalog
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
