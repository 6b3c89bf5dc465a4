package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// searchFeedPayload streams thinking progress to interested clients.
// The percentage is advisory: monotone, but not guaranteed to reach
// 100 before the move lands.
type searchFeedPayload struct {
	Percent  float64 `json:"percent"`
	Nodes    int64   `json:"nodes"`
	Player   int     `json:"player"`
	Thinking bool    `json:"thinking"`
}

type SearchFeedClient struct {
	hub  *SearchFeedHub
	conn *websocket.Conn
	send chan []byte
}

type SearchFeedHub struct {
	mu        sync.Mutex
	clients   map[*SearchFeedClient]struct{}
	broadcast chan searchFeedPayload
}

func NewSearchFeedHub() *SearchFeedHub {
	return &SearchFeedHub{
		clients:   make(map[*SearchFeedClient]struct{}),
		broadcast: make(chan searchFeedPayload, 32),
	}
}

func (h *SearchFeedHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			if len(h.clients) == 0 {
				h.mu.Unlock()
				continue
			}
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "search", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *SearchFeedHub) Register(c *SearchFeedClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *SearchFeedHub) Unregister(c *SearchFeedClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *SearchFeedHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (h *SearchFeedHub) Publish(payload searchFeedPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (c *SearchFeedClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveSearchFeedWS(hub *SearchFeedHub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &SearchFeedClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
