// Package kafka carries the screening pipeline's asynchronous hops:
// scoring requests flowing from the search path to the worker, and the
// notification, high-risk alert and manual-review fan-out after an
// assessment completes.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed record decoupled from the underlying client
// types so handlers can be tested without a broker.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message. A nil return commits
// the offset; an error triggers the consumer's retry and dead-letter
// path.
type MessageHandler func(ctx context.Context, msg *Message) error

// ProducerMessage is an outbound record.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
}

// BatchPublishResult reports per-message outcomes of a batch publish.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// TopicConfig describes a topic for the topic manager.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}
