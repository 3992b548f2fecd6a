package topicmgr

import (
	"fmt"
	"maps"
)

// Topic describes one catalogued (name, version) pair.
type Topic interface {
	// Name returns the topic name shared by every version.
	Name() string

	// Version returns the protocol version of the payload.
	Version() int

	// Key returns the unique catalog key, "name@version".
	Key() string

	// ReplayLast reports whether late subscribers recover the last value.
	ReplayLast() bool

	// Module returns the micro frontend that owns this topic (empty for shell topics)
	Module() string

	// Description returns human-readable documentation
	Description() string

	// Example returns a sample payload
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]any

	// Scope returns whether this is a shell or a module topic
	Scope() TopicScope
}

// TypedTopic is the immutable Topic produced by DefineFramework and DefineModule.
type TypedTopic struct {
	name        string
	version     int
	replayLast  bool
	module      string
	description string
	example     string
	metadata    map[string]any
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

// Definition holds the fields used to define a topic.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Version     int            `json:"version" yaml:"version"`
	ReplayLast  bool           `json:"replayLast" yaml:"replayLast"`
	Module      string         `json:"module,omitempty" yaml:"module,omitempty"`
	Scope       TopicScope     `json:"scope" yaml:"scope"`
	Description string         `json:"description" yaml:"description"`
	Example     string         `json:"example,omitempty" yaml:"example,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TopicScope defines whether a topic belongs to the shell or to a micro frontend
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // Shell topics (theme, location, user profile, ...)
	ScopeModule    TopicScope = "module"    // Topics owned by one micro frontend
)

// Key builds the catalog key of a (name, version) pair.
func Key(name string, version int) string {
	return fmt.Sprintf("%s@%d", name, version)
}

// Describe returns the Definition a topic was built from.
func Describe(t Topic) Definition {
	return Definition{
		Name:        t.Name(),
		Version:     t.Version(),
		ReplayLast:  t.ReplayLast(),
		Module:      t.Module(),
		Scope:       t.Scope(),
		Description: t.Description(),
		Example:     t.Example(),
		Metadata:    t.Metadata(),
	}
}

// TopicError represents structured errors in the topic catalog
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of catalog error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorInvalidScope          ErrorType = "invalid_scope"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Name returns the topic name
func (t *TypedTopic) Name() string {
	return t.name
}

// Version returns the topic version
func (t *TypedTopic) Version() int {
	return t.version
}

// Key returns "name@version"
func (t *TypedTopic) Key() string {
	return Key(t.name, t.version)
}

// ReplayLast reports the replay policy
func (t *TypedTopic) ReplayLast() bool {
	return t.replayLast
}

// Module returns the module that owns this topic
func (t *TypedTopic) Module() string {
	return t.module
}

// Description returns human-readable documentation
func (t *TypedTopic) Description() string {
	return t.description
}

// Example returns a sample payload
func (t *TypedTopic) Example() string {
	return t.example
}

// Metadata returns a copy of the additional topic information
func (t *TypedTopic) Metadata() map[string]any {
	if t.metadata == nil {
		return make(map[string]any)
	}
	return maps.Clone(t.metadata)
}

// Scope returns whether this is a shell or a module topic
func (t *TypedTopic) Scope() TopicScope {
	return t.scope
}

// String returns the catalog key for easy debugging
func (t *TypedTopic) String() string {
	return t.Key()
}

func newTypedTopic(def Definition) *TypedTopic {
	return &TypedTopic{
		name:        def.Name,
		version:     def.Version,
		replayLast:  def.ReplayLast,
		module:      def.Module,
		description: def.Description,
		example:     def.Example,
		metadata:    maps.Clone(def.Metadata),
		scope:       def.Scope,
	}
}
