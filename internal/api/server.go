package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/database"
	"nse-trading-engine/internal/events"
	"nse-trading-engine/internal/execution"
	"nse-trading-engine/internal/portfolio"
	"nse-trading-engine/internal/scanner"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
}

// Server exposes the decision engine, portfolio and scanner over HTTP
// and WebSocket.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	engine    *execution.Engine
	portfolio *portfolio.State
	scanner   *scanner.Scanner
	repo      *database.Repository
	eventBus  *events.EventBus
	hub       *WSHub

	config ServerConfig
	logger zerolog.Logger
}

// NewServer wires routes and the WebSocket hub. repo may be nil when
// persistence is disabled.
func NewServer(cfg ServerConfig, engine *execution.Engine, pf *portfolio.State,
	sc *scanner.Scanner, repo *database.Repository, bus *events.EventBus,
	logger zerolog.Logger) *Server {

	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:    gin.New(),
		engine:    engine,
		portfolio: pf,
		scanner:   sc,
		repo:      repo,
		eventBus:  bus,
		hub:       NewWSHub(logger),
		config:    cfg,
		logger:    logger.With().Str("component", "api_server").Logger(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	s.registerRoutes()

	// Fan every event out to connected WebSocket clients.
	bus.SubscribeAll(func(event events.Event) {
		s.hub.BroadcastEvent(event)
	})

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.POST("/evaluate", s.handleEvaluate)
		api.POST("/execute", s.handleExecute)
		api.POST("/scan", s.handleScan)
		api.GET("/scan/latest", s.handleScanLatest)
		api.GET("/portfolio", s.handlePortfolio)
		api.GET("/portfolio/performance", s.handlePerformance)
		api.POST("/positions/:symbol/close", s.handleClosePosition)
		api.GET("/trades", s.handleTrades)
		api.GET("/trades/:id", s.handleTradeByID)
		api.GET("/signals", s.handleSignals)
	}
}

// Start runs the HTTP server and WebSocket hub.
func (s *Server) Start() error {
	go s.hub.Run()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
