// Package status serves a read-only JSON view of the running battle.
package status

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
)

// Side is one combatant as reported by the status endpoint.
type Side struct {
	Name   string  `json:"name"`
	Health float64 `json:"health"`
	Drawn  bool    `json:"drawn"`
	Active bool    `json:"active"`
}

// Battle is the snapshot published once per tick.
type Battle struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Screen    string    `json:"screen"`
	Battle    int       `json:"battle"`
	Turn      int       `json:"turn"`
	Front     Side      `json:"front"`
	Back      Side      `json:"back"`
	Winner    string    `json:"winner,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Board holds the latest snapshot. It is written by the game loop and read by
// HTTP handlers.
type Board struct {
	mu     sync.RWMutex
	latest Battle
	set    bool
}

// Publish replaces the current snapshot.
func (b *Board) Publish(s Battle) {
	b.mu.Lock()
	b.latest = s
	b.set = true
	b.mu.Unlock()
}

// Latest returns the current snapshot and whether one has been published.
func (b *Board) Latest() (Battle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.set
}

// NewRouter builds the status routes over board.
func NewRouter(board *Board) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/battle", func(c *gin.Context) {
		snap, ok := board.Latest()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no battle yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})
	return router
}

// Server runs the status routes on an address.
type Server struct {
	srv *http.Server
	log logr.Logger
}

// NewServer creates a server for board listening on addr.
func NewServer(addr string, board *Board, log logr.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(board),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.WithName("status"),
	}
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		s.log.Info("status endpoint listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(err, "status endpoint stopped")
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
