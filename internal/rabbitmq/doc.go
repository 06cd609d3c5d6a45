// Package rabbitmq wraps the amqp091-go transport behind small interfaces.
//
// This package includes:
//   - Connection and Channel: the transport boundary used by the rest of
//     the library, implemented by thin adapters over amqp091-go
//   - ConnectionManager: owns a cached connection/channel pair and lazily
//     recreates both when either reports closed
//   - Topology: queue, exchange and binding declarations
//
// Connections and channels are not safe for concurrent use; every publisher
// and consumer owns its own ConnectionManager.
package rabbitmq
