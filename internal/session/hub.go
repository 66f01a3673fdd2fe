// 包 session：会话注册表与每个会话的 websocket 推送
package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"passport-map/internal/logger"
	"passport-map/internal/screen"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

type client struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub：一个会话的全部 websocket 连接
// 约束：Publish 不阻塞；连接发送队列满时丢弃该条事件（相机帧会被下一帧覆盖）
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish：广播一个屏幕事件
func (h *Hub) Publish(ev screen.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.L().Warn("ws_marshal_error", "type", ev.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.L().Debug("ws_drop", "type", ev.Type)
		}
	}
}

// Len：当前连接数
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve：升级连接并阻塞到对端断开；hello 为连接后的第一条消息
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, hello screen.Event) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{ws: ws, send: make(chan []byte, sendBuffer)}
	if b, err := json.Marshal(hello); err == nil {
		c.send <- b
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ws.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.L().Debug("ws_connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// 只读以探测断开，忽略客户端消息
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	close(done)
	logger.L().Debug("ws_disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case b, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				_ = c.ws.Close()
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		_ = c.ws.Close()
	}
}

// Close：断开全部连接，之后的 Serve 直接拒绝
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
