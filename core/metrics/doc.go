package metrics

// Package metrics defines interfaces and implementations for collecting
// battery metrics. Sinks like PromSink and InfluxSink record every state
// change seen by an observer handle and a summary of each completed ramp.
// They can be combined with NewMultiSink; the factory helpers return a
// MultiSink automatically when multiple sinks are configured.
