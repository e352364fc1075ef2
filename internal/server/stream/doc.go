// Package stream pushes live results to WebSocket subscribers.
//
// Hub is a service.EventListener. Events only mark the tally dirty; the
// Run loop reads the results once per burst and fans the snapshot out to
// every subscriber, so a flood of votes costs one store read per refresh
// rather than one per vote and subscriber. Subscribers that cannot keep up
// are disconnected.
package stream
