package stream

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "campusrun:stream:"
	sendBuffer    = 64
)

// Hub fans payloads out to websocket clients by topic. With a Redis client,
// every broadcast is mirrored on a pub/sub channel so hubs in other processes
// deliver it too; a hub skips its own mirrored messages.
type Hub struct {
	id      string
	redis   *redis.Client
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		log:     logger,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.done = make(chan struct{})
		pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*")
		go h.subscribeRedis(ctx, pubsub)
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		if _, registered := topicClients[client]; !registered {
			return
		}
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
		close(client.Send)
	}
}

// Clients reports how many clients listen on topic.
func (h *Hub) Clients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Broadcast delivers payload to local clients of topic without blocking; a
// client whose buffer is full misses the message.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), encodeEnvelope(h.id, payload)).Err()
		if err != nil {
			h.log.Warn("redis publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
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
			topic := topicFromChannel(msg.Channel)
			origin, payload, ok := decodeEnvelope(msg.Payload)
			if topic == "" || !ok || origin == h.id {
				continue
			}
			h.deliver(topic, payload)
		}
	}
}

// Close stops mirroring from Redis. Local broadcasts keep working.
func (h *Hub) Close() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func redisChannel(topic string) string {
	return channelPrefix + topic
}

func topicFromChannel(ch string) string {
	topic, ok := strings.CutPrefix(ch, channelPrefix)
	if !ok {
		return ""
	}
	return topic
}

// envelope: "<origin hub id>\n<payload>"
func encodeEnvelope(origin string, payload []byte) []byte {
	buf := make([]byte, 0, len(origin)+1+len(payload))
	buf = append(buf, origin...)
	buf = append(buf, '\n')
	return append(buf, payload...)
}

func decodeEnvelope(msg string) (origin string, payload []byte, ok bool) {
	raw := []byte(msg)
	i := bytes.IndexByte(raw, '\n')
	if i <= 0 {
		return "", nil, false
	}
	return string(raw[:i]), raw[i+1:], true
}
