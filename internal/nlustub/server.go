// Package nlustub serves canned NLU parse responses so a suite can be
// replayed without a live model.
package nlustub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nlu-regress/internal/nlu"
)

// ParsePath is the route answering parse requests.
const ParsePath = "/parse"

// Fixtures maps sentences to the response the stub returns for them.
type Fixtures struct {
	Model     string                  `json:"model"`
	Responses map[string]nlu.Response `json:"responses"`
}

// LoadFixtures reads a fixtures JSON file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var fx Fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("unmarshal fixtures: %w", err)
	}
	if fx.Responses == nil {
		fx.Responses = make(map[string]nlu.Response)
	}
	return &fx, nil
}

// Config defines stub server behaviour.
type Config struct {
	Fixtures       *Fixtures
	Delay          time.Duration
	Token          string
	AllowedOrigins []string
}

// Server answers parse requests from fixtures.
type Server struct {
	mu             sync.RWMutex
	fixtures       *Fixtures
	delay          time.Duration
	token          string
	allowedOrigins []string
	requests       atomic.Int64
}

// NewServer constructs a stub server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Fixtures == nil {
		return nil, errors.New("fixtures required")
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("delay must not be negative, got %s", cfg.Delay)
	}
	return &Server{
		fixtures:       cfg.Fixtures,
		delay:          cfg.Delay,
		token:          strings.TrimSpace(cfg.Token),
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Set installs or replaces the canned response for a sentence.
func (s *Server) Set(sentence string, resp nlu.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixtures.Responses == nil {
		s.fixtures.Responses = make(map[string]nlu.Response)
	}
	s.fixtures.Responses[sentence] = resp
}

// Requests returns how many parse requests have been received.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Router wires the HTTP handlers.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)
	r.POST(ParsePath, s.handleParse)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	count := len(s.fixtures.Responses)
	model := s.fixtures.Model
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": model, "sentences": count})
}

func (s *Server) handleParse(c *gin.Context) {
	s.requests.Add(1)

	if s.token != "" && c.GetHeader("Authorization") != "Bearer "+s.token {
		s.renderError(c, http.StatusUnauthorized, errors.New("invalid token"))
		return
	}

	var req nlu.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-c.Request.Context().Done():
			return
		}
	}

	s.mu.RLock()
	resp, ok := s.fixtures.Responses[req.Query]
	model := s.fixtures.Model
	s.mu.RUnlock()
	if !ok {
		logrus.WithField("sentence", req.Query).Debug("no canned response")
		s.renderError(c, http.StatusNotFound, fmt.Errorf("no canned response for %q", req.Query))
		return
	}

	resp.Text = req.Query
	resp.Project = req.Project
	if resp.Model == "" {
		resp.Model = model
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
