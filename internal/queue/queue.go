// Package queue carries forecast jobs and their results between the API and
// the job workers. Backends are NATS JetStream (default), Redis Streams, Kafka
// and an in-process channel queue for tests and single-node setups.
package queue

import (
	"context"
	"errors"
)

// Type names a queue backend
type Type string

const (
	TypeNATS   Type = "nats"
	TypeRedis  Type = "redis"
	TypeKafka  Type = "kafka"
	TypeMemory Type = "memory"
)

// ErrClosed is returned by operations on a closed queue
var ErrClosed = errors.New("queue closed")

// Publisher publishes messages to a subject (topic or stream)
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch returns how many messages were accepted by the backend.
	// A partial batch is not an error; a batch where nothing was accepted is.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage is one entry of a PublishBatch call
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber delivers messages of a subject to a handler
type Subscriber interface {
	// Subscribe registers handler for subject. At most one handler per subject.
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
	Close() error
}

// MessageHandler processes one message. Returning an error asks the backend
// to redeliver where it supports redelivery.
type MessageHandler func(ctx context.Context, data []byte) error

// Queue combines Publisher and Subscriber
type Queue interface {
	Publisher
	Subscriber
}
