// Package diag exposes the read-only diagnostics surface: a live stats
// stream over websocket and point-in-time snapshot dumps.
//
// Nothing here affects cache behavior; the registry hands out counter
// snapshots only.
package diag

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/gridcache/registry"
)

const writeWait = 10 * time.Second

// DefaultInterval is the stats streaming period when none is configured.
const DefaultInterval = time.Second

type statsMessage struct {
	Type       string           `json:"type"`
	ServerTime int64            `json:"serverTime"`
	Caches     []registry.Stats `json:"caches"`
}

// Server streams registry stats to websocket subscribers at a fixed
// interval. Register it on any mux, typically under a debug-only port.
type Server struct {
	reg      *registry.Registry
	interval time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a Server over a registry. interval <= 0 uses
// DefaultInterval. logger may be nil.
func NewServer(reg *registry.Registry, interval time.Duration, logger *slog.Logger) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Server{
		reg:      reg,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams one stats frame per
// interval until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("diag websocket upgrade failed", "error", err)
		}
		return
	}
	defer conn.Close()

	// Drain the reader so close frames and pings are processed; the stream
	// is write-only from our side.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			msg := statsMessage{
				Type:       "stats",
				ServerTime: time.Now().UnixMilli(),
				Caches:     s.reg.Stats(),
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				if s.logger != nil {
					s.logger.Debug("diag subscriber dropped", "error", err)
				}
				return
			}
		}
	}
}
