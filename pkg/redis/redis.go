// Package redis provides a bloc.Source implementation backed by Redis
// pub/sub channels.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/bloc"
)

// Source feeds a container with events published on a Redis channel.
// Each message payload is decoded with the configured codec (default JSON)
// into one event. Payloads that fail to decode are skipped.
type Source[E any] struct {
	client  *redis.Client
	channel string
	codec   bloc.Codec
}

// New creates a Source for the given Redis pub/sub channel.
func New[E any](client *redis.Client, channel string) *Source[E] {
	return &Source[E]{
		client:  client,
		channel: channel,
		codec:   bloc.JSONCodec{},
	}
}

// Codec sets the codec used to decode message payloads into events.
// Default: bloc.JSONCodec. Must be called before Events.
func (s *Source[E]) Codec(codec bloc.Codec) *Source[E] {
	s.codec = codec
	return s
}

// Events subscribes to the channel and returns a channel emitting one
// decoded event per message. The channel closes when ctx is canceled or
// the subscription terminates.
func (s *Source[E]) Events(ctx context.Context) (<-chan E, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)

	// Verify subscription worked
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", s.channel, err)
	}

	out := make(chan E)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event E
				if err := s.codec.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ensure Source implements bloc.Source.
var _ bloc.Source[struct{}] = (*Source[struct{}])(nil)
