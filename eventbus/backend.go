package eventbus

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const (
	BackendGoChannel = "gochannel"
	BackendRedis     = "redis"

	DefaultTopic = "staking.events"

	defaultChannelBuffer = 256
)

// Config selects and configures the pub/sub backend.
type Config struct {
	Backend string
	// RedisAddr and RedisPassword are only used by the redis backend.
	RedisAddr     string
	RedisPassword string
	// ConsumerGroup of the redis subscriber.  Empty means fan out.
	ConsumerGroup string
	Topic         string
}

// PubSub bundles the publisher and subscriber of a backend.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Topic      string

	// shared is set when one value is both ends, as gochannel is.
	shared      bool
	redisClient redis.UniversalClient
}

// NewPubSub opens the backend named in cfg.
func NewPubSub(cfg *Config) (*PubSub, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	logger := NewLoggerAdapter()

	switch cfg.Backend {
	case "", BackendGoChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: defaultChannelBuffer,
		}, logger)
		return &PubSub{Publisher: ch, Subscriber: ch, Topic: topic, shared: true}, nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("eventbus: empty redis address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: cfg.ConsumerGroup,
		}, logger)
		if err != nil {
			pub.Close()
			client.Close()
			return nil, err
		}
		return &PubSub{Publisher: pub, Subscriber: sub, Topic: topic, redisClient: client}, nil
	}
	return nil, fmt.Errorf("eventbus: unknown backend %q", cfg.Backend)
}

// Close closes the publisher, the subscriber and the redis client if any.
func (p *PubSub) Close() error {
	var errs []error
	if err := p.Publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if !p.shared {
		if err := p.Subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.redisClient != nil {
		if err := p.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
