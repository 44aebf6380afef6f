// Package relay is the upstream event source: a minimal NIP-01 client that
// holds one websocket connection per configured relay, subscribes each with
// a single filter, and multiplexes matching events onto one channel.
//
// Connection management is deliberately best-effort. AddRelay and Connect
// never block the caller; the watchdog's connectivity task reads Statuses
// and re-issues Connect for anything not reporting StatusConnected.
package relay
