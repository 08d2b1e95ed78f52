package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"belajar-todo/pkg/logger"
)

// Jenis event yang dikirim ke klien.
const (
	EventTodoCreated = "todo.created"
	EventTodoUpdated = "todo.updated"
	EventTodoToggled = "todo.toggled"
	EventTodoDeleted = "todo.deleted"
)

// Event adalah pesan yang dikirim ke semua koneksi milik satu user.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Conn adalah bagian dari *websocket.Conn yang dipakai Hub.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client merepresentasikan klien WebSocket milik satu user.
type Client struct {
	UserID int
	Conn   Conn
	Mu     sync.Mutex
}

func (c *Client) write(message []byte) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, message)
}

type envelope struct {
	userID  int
	message []byte
}

// Hub mengelola koneksi WebSocket per user. Semua perubahan state terjadi di
// goroutine Run.
type Hub struct {
	clients    map[int]map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub membuat instance Hub baru. buffer adalah kapasitas antrian broadcast.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:    make(map[int]map[*Client]struct{}),
		broadcast:  make(chan envelope, buffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run menjalankan loop Hub sampai ctx selesai, lalu menutup semua koneksi.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					client.Conn.Close()
				}
			}
			h.clients = make(map[int]map[*Client]struct{})
			return
		case client := <-h.register:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case env := <-h.broadcast:
			for client := range h.clients[env.userID] {
				if err := client.write(env.message); err != nil {
					logger.SystemLogger.Warn("WebSocket write failed",
						zap.Int("user_id", env.userID),
						zap.Error(err),
					)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	client.Conn.Close()
}

// Register menambahkan client. Mengembalikan false jika Hub sudah berhenti.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish mengirim event ke semua koneksi userID tanpa blocking. Event dibuang
// jika antrian penuh.
func (h *Hub) Publish(userID int, event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		logger.ErrorLogger.Error("Encode websocket event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- envelope{userID: userID, message: message}:
	default:
		logger.SystemLogger.Warn("WebSocket broadcast queue full, dropping event",
			zap.Int("user_id", userID),
			zap.String("type", event.Type),
		)
	}
}

// Publisher adalah sisi Hub yang dipakai handler.
type Publisher interface {
	Publish(userID int, event Event)
}

// Discard adalah Publisher yang tidak melakukan apa-apa.
type Discard struct{}

func (Discard) Publish(int, Event) {}
