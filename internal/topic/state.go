package topic

// State is the synchronization state of a Topic.
type State int

const (
	// StateUninitialized means no value and no sync in flight.
	StateUninitialized State = iota
	// StateSyncing means a sync request was broadcast and no value arrived yet.
	StateSyncing
	// StateSynchronized means a value arrived, by sync response or live publish.
	StateSynchronized
	// StateDestroyed is terminal.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSyncing:
		return "syncing"
	case StateSynchronized:
		return "synchronized"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
