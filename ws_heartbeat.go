package main

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// writeWSWithHeartbeat drains send onto the connection and pings idle
// clients so proxies do not drop the socket. Returns when send closes
// or a write fails.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ping := mustMarshal(wsMessage{Type: "ping"})
	idle := time.NewTicker(wsPingInterval)
	defer idle.Stop()

	write := func(payload []byte) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	lastWrite := time.Now()
	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := write(msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-idle.C:
			if time.Since(lastWrite) < wsPingInterval {
				continue
			}
			if err := write(ping); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
