// Package infra contains technical adapters such as the MQTT bridge,
// the SQLite store and the event journal. These packages should depend
// only on the interfaces defined in the core packages.
package infra
