// Package gateway adapts the chat platform to the relay core.
//
// Inbound, Decode turns one raw dispatch payload into a core.Event and
// StreamSource yields payloads from a newline-delimited stream. Outbound,
// RESTGateway implements core.Gateway over the platform's HTTP API and
// registers the command surface at startup.
//
// The platform connection itself (identify, heartbeat, resume) is owned by
// whatever process produces the payload stream.
package gateway
