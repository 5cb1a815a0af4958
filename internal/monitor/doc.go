// Package monitor records when the screen turns on and when the user
// unlocks the device.
//
// A Service reads signals from a Source, stamps each one as an Event and
// hands it to its Recorders (the SQLite store, a CBOR journal). While the
// service runs it keeps a Notice posted so the user knows recording is on.
//
// The monitor shares nothing with the countdown engine. Its running flag is
// owned by the Service instance, so two services (or a restarted one) never
// observe each other's state.
package monitor
