// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
)

// Bus is a publisher/subscriber pair. It is either an in-process Go
// channel bus or a NATS connection, optionally backed by JetStream.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	config    Config
	logger    zerolog.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewBus builds the bus selected by cfg.
func NewBus(ctx context.Context, cfg Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "events").Logger()
	if !cfg.NATSEnabled {
		return NewInProcessBus(cfg, logger), nil
	}
	return newNATSBus(ctx, cfg, logger)
}

// NewInProcessBus returns a bus that delivers messages between
// goroutines of this process.
func NewInProcessBus(cfg Config, logger zerolog.Logger) *Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logging.NewWatermillAdapter(logger))

	logger.Info().Str("prefix", cfg.TopicPrefix).Msg("In-process event bus ready")
	return &Bus{Publisher: ch, Subscriber: ch, config: cfg, logger: logger}
}

func newNATSBus(ctx context.Context, cfg Config, logger zerolog.Logger) (*Bus, error) {
	wmLogger := logging.NewWatermillAdapter(logger)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.NATS.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", logging.RedactURL(nc.ConnectedUrl())).Msg("NATS reconnected")
		}),
	}

	jsCfg := wmNats.JetStreamConfig{Disabled: true}
	if cfg.NATS.JetStream {
		if err := provisionStream(ctx, &cfg, natsOpts, logger); err != nil {
			return nil, err
		}
		jsCfg = wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			AckAsync:      false,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(cfg.NATS.StreamName),
				natsgo.MaxDeliver(cfg.NATS.MaxDeliver),
				natsgo.AckWait(cfg.NATS.AckWaitTimeout),
				natsgo.DeliverNew(),
			},
			DurablePrefix:     cfg.NATS.DurableName,
			DurableCalculator: durableName,
		}
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATS.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsCfg,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATS.URL,
		QueueGroupPrefix: cfg.NATS.QueueGroup,
		SubscribersCount: cfg.NATS.SubscribersCount,
		AckWaitTimeout:   cfg.NATS.AckWaitTimeout,
		CloseTimeout:     cfg.NATS.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsCfg,
	}, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	logger.Info().
		Str("url", logging.RedactURL(cfg.NATS.URL)).
		Bool("jetstream", cfg.NATS.JetStream).
		Str("prefix", cfg.TopicPrefix).
		Msg("NATS event bus ready")
	return &Bus{Publisher: pub, Subscriber: sub, config: cfg, logger: logger}, nil
}

// provisionStream connects once to create or update the JetStream stream.
func provisionStream(ctx context.Context, cfg *Config, opts []natsgo.Option, logger zerolog.Logger) error {
	nc, err := natsgo.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	stream, err := EnsureStream(ctx, js, cfg)
	if err != nil {
		return err
	}
	info := stream.CachedInfo()
	logger.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")
	return nil
}

// durableName derives a consumer name per topic. Durable names may not
// contain dots.
func durableName(prefix, topic string) string {
	return prefix + "-" + strings.ReplaceAll(topic, ".", "-")
}

// Config returns the bus configuration.
func (b *Bus) Config() Config {
	return b.config
}

// Close closes the publisher and subscriber once.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if err := b.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
		if any(b.Subscriber) != any(b.Publisher) {
			if err := b.Subscriber.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close subscriber: %w", err))
			}
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}

// newMessage wraps a payload in a message with a fresh UUID.
func newMessage(payload []byte) *message.Message {
	return message.NewMessage(uuid.NewString(), payload)
}
