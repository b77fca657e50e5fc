// Package realtime раздает доменные события подписчикам по WebSocket.
// Сервис только пересылает события из Kafka; состояние подписок живет в Hub.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ship-swift/internal/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Префиксы топиков подписки
const (
	TopicJob     = "job"
	TopicDriver  = "driver"
	TopicContact = "contact"
)

// Topic собирает имя топика из префикса и ID
func Topic(prefix, id string) string {
	return prefix + ":" + id
}

// ValidTopic проверяет, что топик имеет вид <prefix>:<id> с известным префиксом
func ValidTopic(topic string) bool {
	prefix, id, ok := strings.Cut(topic, ":")
	if !ok || id == "" {
		return false
	}
	switch prefix {
	case TopicJob, TopicDriver, TopicContact:
		return true
	}
	return false
}

// Frame представляет сообщение, отправляемое подписчику
type Frame struct {
	Topic string      `json:"topic"`
	Type  string      `json:"type"`
	Data  interface{} `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin проверяется на уровне CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client представляет одно WebSocket соединение подписчика
type Client struct {
	ID     string
	topics []string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// Hub хранит подписчиков по топикам
type Hub struct {
	topics     map[string]map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *logrus.Entry
}

// NewHub создает хаб; Run должен быть запущен в отдельной горутине
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		log:        log.ForComponent("realtime"),
	}
}

// Run обрабатывает подключения и отключения до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("Realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			for _, topic := range client.topics {
				subs, ok := h.topics[topic]
				if !ok {
					subs = make(map[*Client]struct{})
					h.topics[topic] = subs
				}
				subs[client] = struct{}{}
			}
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{
				"client_id": client.ID,
				"topics":    client.topics,
			}).Debug("Subscriber registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove удаляет клиента из всех топиков; вызывается под h.mu
func (h *Hub) remove(client *Client) {
	removed := false
	for _, topic := range client.topics {
		subs, ok := h.topics[topic]
		if !ok {
			continue
		}
		if _, ok := subs[client]; ok {
			delete(subs, client)
			removed = true
		}
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if removed {
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := make(map[*Client]struct{})
	for _, subs := range h.topics {
		for client := range subs {
			if _, ok := closed[client]; !ok {
				close(client.send)
				closed[client] = struct{}{}
			}
		}
	}
	h.topics = make(map[string]map[*Client]struct{})
}

// Publish отправляет событие всем подписчикам топика.
// Медленный подписчик с переполненным буфером отключается.
func (h *Hub) Publish(topic, eventType string, data interface{}) error {
	msg, err := json.Marshal(Frame{Topic: topic, Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.topics[topic] {
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.WithField("client_id", client.ID).Warn("Subscriber buffer full, disconnecting")
		h.leave(client)
	}
	return nil
}

// leave передает клиента на отключение; после остановки Run ничего не делает
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers возвращает количество подписчиков топика
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// ServeWS подключает подписчика к топикам из параметров ?topic=
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	topics := r.URL.Query()["topic"]
	if len(topics) == 0 {
		http.Error(w, "at least one topic is required", http.StatusBadRequest)
		return
	}
	for _, topic := range topics {
		if !ValidTopic(topic) {
			http.Error(w, fmt.Sprintf("invalid topic %q", topic), http.StatusBadRequest)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		topics: topics,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump читает входящие кадры только ради pong и обнаружения закрытия
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.WithError(err).WithField("client_id", c.ID).Debug("WebSocket read error")
			}
			return
		}
	}
}

// writePump отправляет сообщения клиенту и поддерживает соединение ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
