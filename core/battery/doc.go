// Package battery defines the battery state record shared by the simulator
// and its observers, the change events emitted when a field moves and the
// helpers enforcing level rounding and the unbounded countdown sentinel.
package battery
