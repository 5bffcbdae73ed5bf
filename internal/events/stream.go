// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream used to manage
// the stream.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// streamConfig returns the stream covering every topic under the prefix.
func streamConfig(cfg *Config) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       cfg.NATS.StreamName,
		Subjects:   []string{cfg.TopicPrefix + ".>"},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.NATS.MaxAge,
		MaxMsgs:    -1,
		Duplicates: cfg.NATS.DuplicateWindow,
		Replicas:   1,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}
}

// EnsureStream creates the stream, or updates it when it already exists.
func EnsureStream(ctx context.Context, js JetStreamContext, cfg *Config) (jetstream.Stream, error) {
	sc := streamConfig(cfg)

	_, err := js.Stream(ctx, sc.Name)
	if err == nil {
		stream, err := js.UpdateStream(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", sc.Name, err)
		}
		return stream, nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := js.CreateStream(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", sc.Name, err)
		}
		return stream, nil
	}
	return nil, fmt.Errorf("check stream %s: %w", sc.Name, err)
}
