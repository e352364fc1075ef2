// Package events publishes voting events to an AMQP fanout exchange.
//
// AMQPPublisher is a service.EventListener. Every session transition and
// recorded vote becomes one persistent JSON message; consumers bind their
// own queues to the exchange.
//
// OnEvent never touches the network: events go to a bounded queue drained
// by one worker that publishes and reconnects, with at most one reconnect
// attempt per RetryInterval. A failed or dropped publish is logged and
// counted but never fails or delays the voting operation that produced
// the event.
package events
