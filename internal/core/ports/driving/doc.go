// Package driving provides interfaces for primary/inbound ports.
//
// Driving ports are implemented by core services and consumed by the
// HTTP adapters. They are what the outside world may ask the core to do.
package driving
