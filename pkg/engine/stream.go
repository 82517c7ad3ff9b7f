package engine

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ltyridium/LumaFlow/pkg/tilecache"
)

// TileEvent announces a rendered tile to stream consumers.
type TileEvent struct {
	Type     string `json:"type"`
	Track    string `json:"track"`
	Mode     string `json:"mode"`
	Colormap string `json:"colormap"`
	Level    int    `json:"level"`
	Index    int    `json:"index"`
}

// StatsEvent carries periodic cache counters.
type StatsEvent struct {
	Type      string `json:"type"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Evictions int64  `json:"evictions"`
	Len       int    `json:"len"`
	Capacity  int    `json:"capacity"`
}

// StreamServer publishes engine events over websockets so external tools
// can watch tile production and cache behavior live.
type StreamServer struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewStreamServer(logger *log.Logger) *StreamServer {
	if logger == nil {
		logger = log.Default()
	}
	return &StreamServer{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// peer goes away. Clients only receive; inbound messages are drained and
// discarded.
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("stream client connected", "clients", n)

	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ListenAndServe runs a dedicated HTTP server for the stream endpoint.
func (s *StreamServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/events", s)
	s.logger.Info("event stream listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// PublishTile broadcasts a tile-ready event. Safe to call from the
// orchestrator's collector goroutine.
func (s *StreamServer) PublishTile(key TileKey) {
	s.broadcast(TileEvent{
		Type:     "tile_ready",
		Track:    key.Track,
		Mode:     key.Mode,
		Colormap: key.Colormap,
		Level:    key.Level,
		Index:    key.Index,
	})
}

// PublishStats broadcasts a cache counter snapshot.
func (s *StreamServer) PublishStats(stats tilecache.Stats) {
	s.broadcast(StatsEvent{
		Type:      "cache_stats",
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
		Len:       stats.Len,
		Capacity:  stats.Capacity,
	})
}

// StartStatsLoop emits cache stats every interval until stop is closed.
func (s *StreamServer) StartStatsLoop(cache *tilecache.Cache, interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.PublishStats(cache.Stats())
			}
		}
	}()
}

func (s *StreamServer) broadcast(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *StreamServer) drop(conn *websocket.Conn) {
	conn.Close()
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
}
