// Package mqtt declares the broker-facing contracts of the battery mock.
// Implementations live in infra/mqtt.
package mqtt
