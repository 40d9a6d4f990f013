// Package bus abstracts the message transport the actors coordinate over.
// Two delivery patterns are exposed: broadcast topics, where every
// subscriber sees every message, and direct destinations, where subscribers
// to the same destination compete and each message reaches exactly one of
// them.
package bus

import "context"

type Message struct {
	Destination string
	Payload     []byte
}

type Bus interface {
	// Broadcast delivers payload to every current subscriber of topic.
	// No acknowledgment, no retry.
	Broadcast(ctx context.Context, topic string, payload []byte) error

	// Send delivers payload to the single logical destination named by an
	// opaque id. The destination is created if it does not exist yet;
	// creation is idempotent.
	Send(ctx context.Context, destination string, payload []byte) error

	// SubscribeBroadcast yields every message broadcast on topic from the
	// point of subscription. The returned channel closes when ctx is done
	// or the bus is closed.
	SubscribeBroadcast(ctx context.Context, topic string) (<-chan Message, error)

	// Subscribe yields messages sent to destination, order-preserving per
	// destination. Multiple subscribers to the same destination compete.
	Subscribe(ctx context.Context, destination string) (<-chan Message, error)

	Close() error
}
