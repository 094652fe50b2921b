// internal/progress/listener.go
// HTTP listener exposing the progress Hub over WebSocket at /progress, plus
// an optional Prometheus /metrics endpoint. Split from the Hub itself so
// that the Hub (a plain notify.Sink) carries no HTTP server or WebSocket
// code. Grounded on the teacher's internal/gateway/listener.go, same
// upgrader/broadcast-loop shape, swapped from binary flamegraph chunks to
// JSON lifecycle events.
package progress

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/metrics"
)

// ListenerConfig controls the progress HTTP listener.
type ListenerConfig struct {
	ListenAddr    string // e.g. ":8099"
	EnableMetrics bool
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StartHTTP starts an HTTP server in its own goroutine serving h's events at
// /progress, returning the *http.Server so the caller can shut it down.
func StartHTTP(h *Hub, cfg ListenerConfig) *http.Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(h, w, r)
	})
	if cfg.EnableMetrics {
		metrics.Register()
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger().Warn("progress listener error", zap.Error(err))
		}
	}()
	logging.Logger().Info("progress listener started", zap.String("addr", cfg.ListenAddr))
	return srv
}

func handleWebSocket(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("progress ws upgrade", zap.Error(err))
		return
	}

	ch, unregister := h.Subscribe()
	defer func() {
		unregister()
		_ = conn.Close()
	}()

	for buf := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
			logging.Logger().Debug("progress ws write", zap.Error(err))
			return
		}
	}
}
