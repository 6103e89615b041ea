package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/joltify-finance/token-staking/model"
)

var alice = common.HexToAddress("0xa000000000000000000000000000000000000001")

func depositEvent(ts int64) *model.Event {
	return &model.Event{
		Type:      model.EventDeposited,
		Timestamp: ts,
		Deposited: &model.Deposited{
			Sender:          alice,
			Amount:          sdkmath.NewInt(1000),
			Balance:         sdkmath.NewInt(1500),
			AccruedEmission: sdkmath.NewInt(500),
		},
	}
}

func TestNewPubSub(t *testing.T) {
	ps, err := NewPubSub(&Config{})
	require.NoError(t, err)
	require.Equal(t, DefaultTopic, ps.Topic)
	require.NoError(t, ps.Close())

	_, err = NewPubSub(&Config{Backend: BackendRedis})
	require.Error(t, err)

	_, err = NewPubSub(&Config{Backend: "kafka"})
	require.Error(t, err)
}

func TestPublisherForwardsEvents(t *testing.T) {
	ps, err := NewPubSub(&Config{Backend: BackendGoChannel, Topic: "test.events"})
	require.NoError(t, err)
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := ps.Subscriber.Subscribe(ctx, ps.Topic)
	require.NoError(t, err)

	pub := NewPublisher(ps.Publisher, ps.Topic, 0)
	pub.Start()
	defer pub.Stop()

	pub.HandleEvent(depositEvent(100))
	pub.HandleEvent(depositEvent(200))

	for _, want := range []int64{100, 200} {
		select {
		case msg := <-msgs:
			require.Equal(t, string(model.EventDeposited), msg.Metadata.Get(MetadataEventType))
			ev, err := DecodeEvent(msg)
			require.NoError(t, err)
			require.Equal(t, want, ev.Timestamp)
			require.Equal(t, alice, ev.Deposited.Sender)
			require.Equal(t, "1500", ev.Deposited.Balance.String())
			msg.Ack()
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
	require.Zero(t, pub.Dropped())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{}, NewLoggerAdapter())
	defer ch.Close()

	// Not started, so nothing drains the queue.
	pub := NewPublisher(ch, "", 1)
	pub.HandleEvent(depositEvent(1))
	pub.HandleEvent(depositEvent(2))
	pub.HandleEvent(depositEvent(3))
	require.Equal(t, uint64(2), pub.Dropped())
}

func TestConsumeRedeliversOnError(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, NewLoggerAdapter())
	defer ch.Close()

	msg, err := NewEventMessage(depositEvent(42))
	require.NoError(t, err)
	require.NoError(t, ch.Publish(DefaultTopic, msg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		mtx   sync.Mutex
		calls int
		done  = make(chan *model.Event, 1)
	)
	errc := make(chan error, 1)
	go func() {
		errc <- Consume(ctx, ch, "", func(ev *model.Event) error {
			mtx.Lock()
			defer mtx.Unlock()
			calls++
			if calls == 1 {
				return errors.New("not yet")
			}
			done <- ev
			return nil
		})
	}()

	select {
	case ev := <-done:
		require.Equal(t, int64(42), ev.Timestamp)
	case <-ctx.Done():
		t.Fatal("event not redelivered")
	}
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	mtx.Lock()
	require.Equal(t, 2, calls)
	mtx.Unlock()
}

func TestLoggerAdapterWith(t *testing.T) {
	l := NewLoggerAdapter().With(map[string]interface{}{"topic": "a"})
	adapter := l.(*loggerAdapter)
	require.Equal(t, "msg b=1 topic=a", adapter.format("msg", map[string]interface{}{"b": 1}))
}
