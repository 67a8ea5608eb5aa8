package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exstrade/tradeguard/gateway"
	"github.com/exstrade/tradeguard/ledger"
	"github.com/exstrade/tradeguard/notify"
)

// postWebhook is the signal ingestion endpoint. Response shapes mirror
// the hosted function the dashboard was built against.
func (s *Server) postWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.badRequest(c, "unreadable body")
		return
	}

	p, err := gateway.ParsePayload(body)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	res, err := s.gw.Handle(p)
	switch {
	case errors.Is(err, gateway.ErrInvalidPayload):
		s.badRequest(c, err.Error())
		return
	case errors.Is(err, ledger.ErrUnknownSymbol):
		c.JSON(http.StatusNotFound, apiError{Code: "unknown_symbol", Message: "strategy not found"})
		return
	case err != nil:
		s.internalError(c, "handle signal", err)
		return
	}

	s.Publish(res)

	if !res.Applied {
		c.JSON(http.StatusOK, gin.H{"message": res.Message})
		return
	}
	switch res.Event {
	case gateway.EventEntry:
		c.JSON(http.StatusOK, gin.H{"message": "Entry Recorded & Push Sent", "size": res.Trade.PositionSize})
	case gateway.EventExit:
		c.JSON(http.StatusOK, gin.H{"message": "Exit Recorded & Push Sent", "pnl": res.Trade.PnL})
	}
}

// Publish fans an applied signal out to push subscribers and websocket
// clients. Runs after the core has committed; failures are logged, the
// webhook response does not wait on delivery status.
func (s *Server) Publish(res gateway.Result) {
	if s.hub != nil {
		if msg, err := json.Marshal(res.Strategy); err == nil {
			s.hub.Broadcast(msg)
		}
	}
	if !res.Applied {
		return
	}
	go func(d notify.Descriptor) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.sender.Send(ctx, d); err != nil {
			s.log.Warn("push delivery", zap.Error(err))
		}
	}(res.Notification)
}

func (s *Server) getStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, s.eng.Snapshots())
}

func (s *Server) getStrategy(c *gin.Context) {
	snap, err := s.eng.Snapshot(c.Param("symbol"))
	if errors.Is(err, ledger.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, apiError{Code: "unknown_symbol", Message: "strategy not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getTrades(c *gin.Context) {
	snap, err := s.eng.Snapshot(c.Param("symbol"))
	if errors.Is(err, ledger.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, apiError{Code: "unknown_symbol", Message: "strategy not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": snap.Trades})
}

// getEquityCurve serves the in-memory curve, optionally clipped to
// [from, to) given as RFC3339 query params.
func (s *Server) getEquityCurve(c *gin.Context) {
	snap, err := s.eng.Snapshot(c.Param("symbol"))
	if errors.Is(err, ledger.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, apiError{Code: "unknown_symbol", Message: "strategy not found"})
		return
	}

	from, ok := parseTimeParam(c, "from")
	if !ok {
		s.badRequest(c, "from must be RFC3339")
		return
	}
	to, ok := parseTimeParam(c, "to")
	if !ok {
		s.badRequest(c, "to must be RFC3339")
		return
	}

	points := snap.EquityCurve
	if !from.IsZero() || !to.IsZero() {
		clipped := make([]ledger.EquityPoint, 0, len(points))
		for _, p := range points {
			if !from.IsZero() && p.Time.Before(from) {
				continue
			}
			if !to.IsZero() && !p.Time.Before(to) {
				continue
			}
			clipped = append(clipped, p)
		}
		points = clipped
	}
	c.JSON(http.StatusOK, gin.H{"rows": points})
}

func parseTimeParam(c *gin.Context, name string) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) postSubscribe(c *gin.Context) {
	var sub struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" {
		s.badRequest(c, "endpoint and keys are required")
		return
	}
	if err := s.subs.UpsertSubscription(notify.Subscription{
		Endpoint: sub.Endpoint,
		P256dh:   sub.Keys.P256dh,
		Auth:     sub.Keys.Auth,
	}); err != nil {
		s.internalError(c, "upsert subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) deleteSubscribe(c *gin.Context) {
	var sub struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" {
		s.badRequest(c, "endpoint is required")
		return
	}
	if err := s.subs.RemoveSubscription(sub.Endpoint); err != nil {
		s.internalError(c, "remove subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
