package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event - 사가 진행 상황 알림
type Event struct {
	Type         string `json:"type"`
	GenerationID string `json:"generationId,omitempty"`
	JobID        string `json:"jobId,omitempty"`
	Stage        string `json:"stage"`
	Message      string `json:"message,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		// 프로덕션에서는 특정 도메인만 허용하도록 수정
		return true
	},
}

type client struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Hub - userId별 WebSocket 연결을 관리하고 진행 이벤트를 전달함
type Hub struct {
	clients map[string][]*client
	mutex   sync.RWMutex
}

// NewHub - Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]*client),
	}
}

// Publish - 해당 사용자의 모든 연결에 이벤트 전송
// 연결이 없거나 버퍼가 가득 차면 조용히 버림 (사가 진행을 막지 않음)
func (h *Hub) Publish(userID string, event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling progress event: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, c := range h.clients[userID] {
		select {
		case c.send <- messageBytes:
		default:
			// 느린 클라이언트는 건너뜀
		}
	}
}

// HandleWS - WebSocket 연결 핸들러 (?user=... 필수)
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		log.Printf("Missing user parameter")
		conn.Close()
		return
	}

	c := &client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
	}

	h.addClient(c)
	log.Printf("🔍 New progress connection - User: %s", userID)

	go c.writePump()
	go h.readPump(c)
}

func (h *Hub) addClient(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c.userID] = append(h.clients[c.userID], c)
}

func (h *Hub) removeClient(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns := h.clients[c.userID]
	for i, existing := range conns {
		if existing == c {
			h.clients[c.userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[c.userID]) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)

	log.Printf("👋 Progress connection closed - User: %s", c.userID)
}

// readPump - 클라이언트 메시지는 무시하고 연결 종료만 감지
func (h *Hub) readPump(c *client) {
	defer func() {
		h.removeClient(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
