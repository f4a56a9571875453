// Package api defines the wire types served by the daemon's HTTP API and the
// conversions from session records into client-facing payloads. The payload
// shapes are load-bearing: the upload widget parses them field by field, so
// they change only with the client.
package api
