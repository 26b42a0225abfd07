package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nse-trading-engine/internal/execution"
	"nse-trading-engine/internal/portfolio"
)

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// handleHealth reports service liveness and dependency state.
func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":     "ok",
		"ws_clients": s.hub.GetClientCount(),
	}
	if s.repo != nil {
		if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = "unreachable"
		} else {
			health["database"] = "ok"
		}
	}
	c.JSON(http.StatusOK, health)
}

// ============================================================================
// DECISION HANDLERS
// ============================================================================

type evaluateRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	HigherTF string `json:"higher_timeframe"`
	LowerTF  string `json:"lower_timeframe"`
}

// handleEvaluate runs the decision pipeline for one symbol.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.HigherTF == "" {
		req.HigherTF = "1h"
	}
	if req.LowerTF == "" {
		req.LowerTF = "15m"
	}

	decision := s.engine.Evaluate(c.Request.Context(), req.Symbol, req.HigherTF, req.LowerTF)
	successResponse(c, decision)
}

type executeRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	HigherTF string `json:"higher_timeframe"`
	LowerTF  string `json:"lower_timeframe"`
}

// handleExecute evaluates a symbol and commits the resulting order, if
// any.
func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.HigherTF == "" {
		req.HigherTF = "1h"
	}
	if req.LowerTF == "" {
		req.LowerTF = "15m"
	}

	decision := s.engine.Evaluate(c.Request.Context(), req.Symbol, req.HigherTF, req.LowerTF)
	order, ok := decision.(execution.TradeOrder)
	if !ok {
		successResponse(c, decision)
		return
	}

	if !s.engine.Execute(c.Request.Context(), order) {
		errorResponse(c, http.StatusConflict, "Trade execution failed")
		return
	}
	successResponse(c, order)
}

// ============================================================================
// SCAN HANDLERS
// ============================================================================

// handleScan triggers a full-universe scan.
func (s *Server) handleScan(c *gin.Context) {
	result := s.scanner.Scan()
	if result == nil {
		errorResponse(c, http.StatusInternalServerError, "Scan failed")
		return
	}
	successResponse(c, result)
}

// handleScanLatest returns the most recent scan result.
func (s *Server) handleScanLatest(c *gin.Context) {
	result := s.scanner.LastResult()
	if result == nil {
		errorResponse(c, http.StatusNotFound, "No scan has completed yet")
		return
	}
	successResponse(c, result)
}

// ============================================================================
// PORTFOLIO HANDLERS
// ============================================================================

// handlePortfolio returns the live portfolio summary.
func (s *Server) handlePortfolio(c *gin.Context) {
	successResponse(c, s.portfolio.GetSummary())
}

// handlePerformance returns risk-adjusted metrics from persisted
// snapshots and closed trades.
func (s *Server) handlePerformance(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Persistence is disabled")
		return
	}

	ctx := c.Request.Context()
	snapshots, err := s.repo.GetSnapshots(ctx, 500)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load snapshots")
		return
	}
	trades, err := s.repo.GetClosedTrades(ctx, 500)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load trades")
		return
	}

	successResponse(c, portfolio.BuildPerformanceReport(snapshots, trades))
}

type closePositionRequest struct {
	ExitPrice float64 `json:"exit_price" binding:"required"`
	Reason    string  `json:"reason"`
}

// handleClosePosition closes an open position at the given price.
func (s *Server) handleClosePosition(c *gin.Context) {
	symbol := c.Param("symbol")

	var req closePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "exit_price is required")
		return
	}
	if req.Reason == "" {
		req.Reason = "Manual close"
	}

	result, err := s.portfolio.ClosePosition(c.Request.Context(), symbol, req.ExitPrice, req.Reason)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "Position not found")
		return
	}

	if s.eventBus != nil {
		s.eventBus.PublishTradeClosed(symbol, req.ExitPrice, result.PnL, req.Reason)
	}
	successResponse(c, result)
}

// ============================================================================
// TRADE AND SIGNAL HANDLERS
// ============================================================================

// handleTrades returns active lifecycle trades plus the aggregate
// performance summary.
func (s *Server) handleTrades(c *gin.Context) {
	successResponse(c, gin.H{
		"active":  s.engine.Lifecycle().ActiveTrades(),
		"summary": s.engine.Lifecycle().PerformanceSummary(),
	})
}

// handleTradeByID returns one trade with its full stage history.
func (s *Server) handleTradeByID(c *gin.Context) {
	trade, ok := s.engine.Lifecycle().GetTrade(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "Trade not found")
		return
	}
	successResponse(c, trade)
}

// handleSignals returns recently persisted signals.
func (s *Server) handleSignals(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Persistence is disabled")
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	signals, err := s.repo.GetRecentSignals(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load signals")
		return
	}
	successResponse(c, signals)
}
