package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/ibaizabal/floodwatch/internal/pkg/metrics"
)

// WebSocketHandler relays completed assessments to connected clients as they
// are published on the broadcast subject. Clients may optionally send
// {"risk_level":"High"} to filter the feed; an empty filter means everything.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "addr", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		var filterLevel string

		writeRaw := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sub, err := nc.Subscribe("flood.updates.broadcast", func(msg *nats.Msg) {
			mu.Lock()
			level := filterLevel
			mu.Unlock()

			if level != "" {
				var a struct {
					RiskLevel string `json:"risk_level"`
				}
				if json.Unmarshal(msg.Data, &a) != nil || a.RiskLevel != level {
					return
				}
			}
			_ = writeRaw(msg.Data)
		})
		if err != nil {
			slog.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read filter updates until the client hangs up
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m struct {
				RiskLevel string `json:"risk_level"`
			}
			if err := json.Unmarshal(msg, &m); err != nil {
				mu.Lock()
				_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid JSON"}`))
				mu.Unlock()
				continue
			}

			mu.Lock()
			filterLevel = m.RiskLevel
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"status":"filter updated"}`))
			mu.Unlock()
		}

		slog.Info("ws client disconnected", "addr", remoteAddr)
	}
}
