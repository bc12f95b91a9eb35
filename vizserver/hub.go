package vizserver

import (
	"encoding/json"
	"sync"

	"trafsim/log"
	"trafsim/simulator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// 每个客户端最多缓存的消息数，超过时视为慢客户端并断开
const sendBuffer = 16

// message 推送给客户端的消息
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type client struct {
	id   string
	send chan []byte
}

// Hub 保存最新一帧并广播给所有websocket客户端
// Publish 从不阻塞模拟，跟不上的客户端会被断开
type Hub struct {
	mu      sync.RWMutex
	latest  []byte
	clients map[*client]struct{}
	closed  bool
}

// NewHub 创建广播中心
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func encodeFrame(frame simulator.Frame) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	return json.Marshal(message{Type: "frame", Data: data})
}

// Publish 实现simulator.Publisher
func (h *Hub) Publish(frame simulator.Frame) {
	data, err := encodeFrame(frame)
	if err != nil {
		log.WithError(err).Warn("drop frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.drop(c)
			log.WithFields(log.Fields{"client": c.id}).Warn("slow viz client dropped")
		}
	}
}

// Latest 返回最新一帧的JSON，尚未发布时返回nil
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Clients 返回当前连接的客户端数
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register 加入一个客户端，已有数据时先推送最新一帧
func (h *Hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	c := &client{id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop 调用方必须持有写锁
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close 断开所有客户端，之后的Publish不再生效
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
	h.closed = true
}
