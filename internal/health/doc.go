// Package health holds the watchdog's shared operational state: last event
// time, last heartbeat time, processed-event counter and the health flag.
//
// Monitor is the single shared mutable resource in the process. The event
// loop is the only writer of the event fields, the heartbeat task the only
// writer of the heartbeat field; everything else only reads.
package health
