package mqtt

import "github.com/kilianp07/battsim/core/battery"

// Topics derives the bridge topics from a prefix.
type Topics struct {
	Prefix string
}

// State is the retained snapshot topic.
func (t Topics) State() string { return t.Prefix + "/state" }

// Event is the per-kind change topic, e.g. battsim/event/levelchange.
func (t Topics) Event(kind battery.EventKind) string { return t.Prefix + "/event/" + kind.String() }

// Command is the topic the bridge listens on for controller requests.
func (t Topics) Command() string { return t.Prefix + "/command" }

// Status carries "online" while connected and the last will otherwise.
func (t Topics) Status() string { return t.Prefix + "/status" }
