// Package server exposes the webhook receiver, the read-only query API
// and the realtime websocket stream over gin.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exstrade/tradeguard/gateway"
	"github.com/exstrade/tradeguard/ledger"
	"github.com/exstrade/tradeguard/notify"
)

type Server struct {
	R      *gin.Engine
	gw     *gateway.Gateway
	eng    *ledger.Engine
	subs   notify.SubscriptionStore // nil when push is not configured
	sender notify.Sender
	hub    *Hub
	log    *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New wires the router, middleware and routes.
func New(gw *gateway.Gateway, eng *ledger.Engine, subs notify.SubscriptionStore, sender notify.Sender, hub *Hub, log *zap.Logger, corsOrigin string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if sender == nil {
		sender = notify.NopSender{}
	}

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		log.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{R: g, gw: gw, eng: eng, subs: subs, sender: sender, hub: hub, log: log}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })

	g.POST("/webhook/tradingview", s.postWebhook)

	g.GET("/api/strategies", s.getStrategies)
	g.GET("/api/strategies/:symbol", s.getStrategy)
	g.GET("/api/strategies/:symbol/trades", s.getTrades)
	g.GET("/api/strategies/:symbol/equity", s.getEquityCurve)

	if subs != nil {
		g.POST("/api/push/subscribe", s.postSubscribe)
		g.DELETE("/api/push/subscribe", s.deleteSubscribe)
	}

	if hub != nil {
		g.GET("/ws", hub.handleWS)
	}

	return s
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.log.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}
