package topics

import (
	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/topic"
	"github.com/nfrund/shellbus/internal/topicmgr"
)

// Kind binds a catalog definition to its payload type.
type Kind[T any] struct {
	def topicmgr.Topic
}

// Define creates a shell Kind from def.
func Define[T any](def topicmgr.Definition) Kind[T] {
	return Kind[T]{def: topicmgr.DefineFramework(def)}
}

// Definition returns the catalog entry.
func (k Kind[T]) Definition() topicmgr.Topic {
	return k.def
}

// Name returns the topic name.
func (k Kind[T]) Name() string {
	return k.def.Name()
}

// Version returns the topic version.
func (k Kind[T]) Version() int {
	return k.def.Version()
}

// Topic constructs a consumer. Options are applied after the catalog replay
// policy, so they may override it.
func (k Kind[T]) Topic(reg *channel.Registry, opts ...topic.Option) *topic.Topic[T] {
	return topic.New[T](reg, k.def.Name(), k.def.Version(), k.options(opts)...)
}

// Publisher constructs a producer.
func (k Kind[T]) Publisher(reg *channel.Registry, opts ...topic.Option) *topic.Publisher[T] {
	return topic.NewPublisher[T](reg, k.def.Name(), k.def.Version(), k.options(opts)...)
}

func (k Kind[T]) options(opts []topic.Option) []topic.Option {
	return append([]topic.Option{topic.WithReplay(k.def.ReplayLast())}, opts...)
}
