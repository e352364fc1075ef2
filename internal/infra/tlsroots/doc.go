// Package tlsroots loads TLS material for the HTTP listener and the AMQP
// client.
//
// KeyPair serves the listener certificate and reloads it when the files
// change on disk. Pool builds the root set used to verify the broker when
// events.amqp.ca_file is set.
package tlsroots
