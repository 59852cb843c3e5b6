package hub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"mentor-chat/internal/transport"
)

// Hub mantiene los clientes conectados y sus suscripciones por tópico.
type Hub struct {
	logger     *zap.Logger
	clients    map[string]*Client            // clientID -> client
	topics     map[string]map[string]*Client // topic -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan topicMessage
	mu         sync.RWMutex
}

type topicMessage struct {
	topic string
	data  []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan topicMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for topic, subs := range h.topics {
					delete(subs, client.ID)
					if len(subs) == 0 {
						delete(h.topics, topic)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("client_id", client.ID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.topics[msg.topic] {
				client.Enqueue(msg.data)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) { h.register <- client }

func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Subscribe agrega al cliente al tópico. Suscribirse dos veces al mismo
// tópico es un no-op: nunca hay entrega duplicada por suscripción.
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[string]*Client)
	}
	h.topics[topic][client.ID] = client
	h.logger.Info("client subscribed", zap.String("client_id", client.ID), zap.String("topic", topic))
}

// Broadcast envuelve el payload en un frame MESSAGE y lo reparte a todos
// los suscriptores del tópico.
func (h *Hub) Broadcast(topic string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("broadcast marshal failed", zap.Error(err), zap.String("topic", topic))
		return
	}
	frame, err := json.Marshal(transport.Frame{
		Type:        transport.FrameMessage,
		Destination: topic,
		Body:        body,
	})
	if err != nil {
		h.logger.Warn("broadcast frame marshal failed", zap.Error(err))
		return
	}
	h.broadcast <- topicMessage{topic: topic, data: frame}
}

// SubscriberCount devuelve cuántos clientes escuchan un tópico.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
