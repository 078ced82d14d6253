// Package httpapi exposes the daemon to foreground processes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/benjamonnguyen/pomomo-focus"
)

// Signaler triggers an immediate dispatcher pass.
type Signaler interface {
	Signal()
}

// Message is the body of POST /api/messages.
type Message struct {
	Type string `json:"type" binding:"required"`
}

type Server struct {
	dispatcher    Signaler
	notifications pomomo.NotificationRepo
	stats         pomomo.StatsRepo
	loc           *time.Location
	now           func() time.Time
	router        *gin.Engine
	srv           *http.Server
	l             *log.Logger
}

func NewServer(dispatcher Signaler, notifications pomomo.NotificationRepo, stats pomomo.StatsRepo, loc *time.Location, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		dispatcher:    dispatcher,
		notifications: notifications,
		stats:         stats,
		loc:           loc,
		now:           time.Now,
		router:        router,
		l:             logger,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/messages", s.handleMessage)
		api.GET("/notifications", s.handleListNotifications)
		api.GET("/stats/today", s.handleTodayStats)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.l.Info("http api listening", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMessage(c *gin.Context) {
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch msg.Type {
	case pomomo.CheckScheduledNotifications:
		s.dispatcher.Signal()
		c.Status(http.StatusAccepted)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type: " + msg.Type})
	}
}

func (s *Server) handleListNotifications(c *gin.Context) {
	existing, err := s.notifications.ListNotifications(c.Request.Context())
	if err != nil {
		s.l.Error("failed to list notifications", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	notifications := make([]pomomo.ScheduledNotification, 0, len(existing))
	for _, n := range existing {
		notifications = append(notifications, n.ScheduledNotification)
	}
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) handleTodayStats(c *gin.Context) {
	date := pomomo.DateKey(s.now().In(s.loc))
	stats, err := s.stats.GetStatistics(c.Request.Context(), date)
	if err != nil {
		s.l.Error("failed to get statistics", "date", date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func requestLogger(l *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}
