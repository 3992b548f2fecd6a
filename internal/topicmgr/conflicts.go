package topicmgr

import (
	"fmt"
	"slices"
)

// ConflictKind classifies a catalog lint finding.
type ConflictKind string

const (
	// ConflictMultipleVersions: one name is registered with several versions.
	// Publishers and consumers of different versions never see each other.
	ConflictMultipleVersions ConflictKind = "multiple_versions"
	// ConflictReplayPolicy: versions of one name disagree on ReplayLast.
	ConflictReplayPolicy ConflictKind = "replay_policy"
)

// Conflict is a lint finding about a topic name.
type Conflict struct {
	Kind     ConflictKind `json:"kind" yaml:"kind"`
	Name     string       `json:"name" yaml:"name"`
	Versions []int        `json:"versions" yaml:"versions"`
	Message  string       `json:"message" yaml:"message"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Name, c.Message)
}

// Conflicts reports names registered with more than one version and names
// whose versions disagree on replay. Both are legal; they are the usual cause
// of "my subscriber never fires".
func (m *Manager) Conflicts() []Conflict {
	byName := make(map[string][]Topic)
	var names []string
	for _, t := range m.List() {
		if _, seen := byName[t.Name()]; !seen {
			names = append(names, t.Name())
		}
		byName[t.Name()] = append(byName[t.Name()], t)
	}

	var conflicts []Conflict
	for _, name := range names {
		topics := byName[name]
		if len(topics) < 2 {
			continue
		}
		versions := make([]int, 0, len(topics))
		replays := make([]bool, 0, len(topics))
		for _, t := range topics {
			versions = append(versions, t.Version())
			replays = append(replays, t.ReplayLast())
		}

		conflicts = append(conflicts, Conflict{
			Kind:     ConflictMultipleVersions,
			Name:     name,
			Versions: versions,
			Message:  fmt.Sprintf("registered with versions %v; each version is a separate stream", versions),
		})
		if slices.Contains(replays, true) && slices.Contains(replays, false) {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictReplayPolicy,
				Name:     name,
				Versions: versions,
				Message:  "versions disagree on replaying the last value",
			})
		}
	}
	return conflicts
}
