package bridge

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Topic names mirror the reference implementation's MQTT topic strings,
// translated to the Redis-backed transport's channel/stream naming.
const (
	TopicAnnounce    = "admin/announce/all"
	TopicLevelReply  = "level/func/reply"
	TopicMachRequest = "mach/func/request"
	TopicLevelReq    = "level/func/request"
	TopicMachReply   = "mach/func/reply"
)

// Broker is the messaging-fabric transport a Bridge uses to exchange wire
// Commands with device/fog/cloud peers. Outgoing REXEC-* requests are
// published to a per-tier Redis Stream (so a peer can consume with an
// at-least-once consumer group, the same shape as the teacher's priority
// queues); replies, acks, naks and results are exchanged over Redis
// Pub/Sub channels, matching the reference implementation's asymmetry
// between fire-and-forget outbound dispatch and inbound reply handling.
type Broker struct {
	client *redis.Client
	group  string
}

// NewBroker constructs a Broker over an existing Redis client. group
// names the consumer group used when reading per-tier request streams.
func NewBroker(client *redis.Client, group string) *Broker {
	return &Broker{client: client, group: group}
}

func streamName(tier Tier, topic string) string {
	return fmt.Sprintf("bridge:%s:%s", tier, topic)
}

func channelName(topic string) string {
	return "bridge:" + topic
}

// EnsureGroup creates the consumer group for tier's request stream if it
// does not already exist, mirroring the teacher's
// XGroupCreateMkStream-on-first-use pattern.
func (b *Broker) EnsureGroup(ctx context.Context, tier Tier, topic string) error {
	err := b.client.XGroupCreateMkStream(ctx, streamName(tier, topic), b.group, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return err
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

// PublishRequest appends cmd to tier's request stream.
func (b *Broker) PublishRequest(ctx context.Context, tier Tier, topic string, cmd *Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName(tier, topic),
		Values: map[string]any{"data": data},
	}).Err()
}

// ConsumeRequests starts reading tier's request stream under the
// broker's consumer group as consumerName, sending decoded commands on
// the returned channel until ctx is cancelled. Each delivered command is
// acknowledged once sent downstream (at-least-once, matching the
// reference transport's retry-on-redelivery expectations).
func (b *Broker) ConsumeRequests(ctx context.Context, tier Tier, topic, consumerName string) (<-chan *Command, error) {
	if err := b.EnsureGroup(ctx, tier, topic); err != nil {
		return nil, err
	}
	out := make(chan *Command)
	stream := streamName(tier, topic)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    b.group,
				Consumer: consumerName,
				Streams:  []string{stream, ">"},
				Count:    16,
				Block:    0,
			}).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			for _, s := range res {
				for _, msg := range s.Messages {
					raw, _ := msg.Values["data"].(string)
					cmd, err := DecodeCommand([]byte(raw))
					if err != nil {
						b.client.XAck(ctx, stream, b.group, msg.ID)
						continue
					}
					select {
					case out <- cmd:
						b.client.XAck(ctx, stream, b.group, msg.ID)
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// PublishReply publishes cmd on topic's Pub/Sub channel.
func (b *Broker) PublishReply(ctx context.Context, topic string, cmd *Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelName(topic), data).Err()
}

// SubscribeReplies subscribes to topic's Pub/Sub channel, sending decoded
// commands on the returned channel until ctx is cancelled or Close is
// called on the subscription.
func (b *Broker) SubscribeReplies(ctx context.Context, topic string) (<-chan *Command, func() error) {
	sub := b.client.Subscribe(ctx, channelName(topic))
	out := make(chan *Command)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				cmd, err := DecodeCommand([]byte(msg.Payload))
				if err != nil {
					continue
				}
				select {
				case out <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close
}

// Close releases the underlying Redis client.
func (b *Broker) Close() error {
	return b.client.Close()
}
