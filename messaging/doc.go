// Package messaging provides the publish, consume and pipeline wrappers.
//
// A Publisher wraps a function so its return value is serialized and emitted
// to a queue. A Consumer wraps a function so it is invoked with the decoded
// body of every delivered message, optionally mirroring raw deliveries to a
// logging queue and forwarding results downstream. A Pipeline chains the two.
//
// Every wrapper owns its connection exclusively. Consumption is blocking and
// single-threaded per wrapper; run concurrent consumers on separate wrappers,
// one goroutine each.
package messaging
