// Package monitor streams sweep progress to websocket clients and serves a JSON snapshot
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/config"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/status"
)

// Websocket settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Monitor publishes status.Registry snapshots
// Slow clients drop frames instead of stalling the broadcaster
type Monitor struct {
	reg      *status.Registry
	addr     string
	interval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	srv     *http.Server
	ln      net.Listener

	stopChan chan struct{}
	stopOnce sync.Once
	running  bool

	log *logrus.Entry
}

// Option configures a Monitor
type Option func(*Monitor)

// WithAddr sets the listen address; empty disables the monitor
func WithAddr(addr string) Option {
	return func(m *Monitor) { m.addr = addr }
}

// WithInterval sets the broadcast period
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// New creates a monitor over reg
func New(reg *status.Registry, opts ...Option) *Monitor {
	m := &Monitor{
		reg:      reg,
		interval: time.Second,
		clients:  make(map[*client]struct{}),
		stopChan: make(chan struct{}),
		log:      logger.For("monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements service.Service
func (m *Monitor) Name() string { return "monitor" }

// Dependencies implements service.Service
func (m *Monitor) Dependencies() []string { return nil }

// Enabled implements service.Enabler
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr != ""
}

// Init implements service.Service
// args[0]: *config.Config; its monitor address overrides WithAddr when set
func (m *Monitor) Init(args ...any) error {
	if len(args) == 0 {
		return nil
	}
	if cfg, ok := args[0].(*config.Config); ok && cfg.Monitor.Addr != "" {
		m.mu.Lock()
		m.addr = cfg.Monitor.Addr
		m.mu.Unlock()
	}
	return nil
}

// Handler returns the monitor routes: /ws, /status and /health
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWS)
	mux.HandleFunc("/status", m.handleStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start implements service.Service
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}
	m.ln = ln
	m.srv = &http.Server{Handler: m.Handler(), ReadHeaderTimeout: writeWait}
	m.running = true

	srv := m.srv
	core.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("Monitor server stopped")
		}
	})
	core.Go(m.broadcastLoop)
	m.log.WithField("addr", ln.Addr().String()).Info("Monitor listening")
	return nil
}

// Addr returns the bound address, empty before Start
func (m *Monitor) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

// Stop implements service.Service
func (m *Monitor) Stop() error {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		srv := m.srv
		for c := range m.clients {
			c.close()
			delete(m.clients, c)
		}
		m.running = false
		m.mu.Unlock()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				m.log.WithError(err).Warn("Monitor shutdown incomplete")
			}
		}
	})
	return nil
}

// Clients returns the number of connected websocket clients
func (m *Monitor) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Broadcast pushes the current snapshot to every client
func (m *Monitor) Broadcast() {
	snap := m.reg.Snapshot()
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		select {
		case c.send <- snap:
		default:
			// Client is behind; the next tick carries newer numbers anyway
		}
	}
}

func (m *Monitor) broadcastLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Broadcast()
		}
	}
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(m.reg.Snapshot()); err != nil {
		m.log.WithError(err).Debug("Status write failed")
	}
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan map[string]any, sendBuffer), done: make(chan struct{})}

	m.mu.Lock()
	select {
	case <-m.stopChan:
		m.mu.Unlock()
		conn.Close()
		return
	default:
	}
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	// First frame goes out immediately so clients need not wait a tick
	c.send <- m.reg.Snapshot()

	core.Go(func() { c.writePump(m.log) })
	core.Go(func() {
		c.readPump()
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
		c.close()
	})
}
