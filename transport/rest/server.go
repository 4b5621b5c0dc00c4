package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	visitorTTL             = 5 * time.Minute
)

type Options struct {
	Port              string
	AllowOrigins      []string
	RequestsPerMinute int
	Burst             int
	LivenessWindow    time.Duration
	ShutdownTimeout   time.Duration

	// Now - clock used for the presence online flag, time.Now when nil.
	Now func() time.Time
}

type Server struct {
	logger *slog.Logger
	opts   Options
	router *gin.Engine
}

func New(logger *slog.Logger, opts Options, rooms roomService, presence presenceService) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	logger = logger.With("component", "rest")

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(opts.AllowOrigins))

	router.GET("/ping", pingHandler)

	api := router.Group("/api")
	if opts.RequestsPerMinute > 0 {
		api.Use(rateLimitByIP(newIPRateLimiter(opts.RequestsPerMinute, opts.Burst, visitorTTL)))
	}

	roomHandlers := newRoomHandlers(logger, rooms)
	api.POST("/rooms", roomHandlers.createRoom)
	api.GET("/rooms", roomHandlers.listWaitingRooms)
	api.GET("/rooms/:id", roomHandlers.getRoom)
	api.POST("/rooms/:id/move", roomHandlers.makeMove)
	api.POST("/rooms/:id/reset", roomHandlers.resetGame)
	api.POST("/rooms/:id/leave", roomHandlers.leaveRoom)
	api.GET("/codes/:code", roomHandlers.getRoomByCode)
	api.POST("/codes/:code/join", roomHandlers.joinRoom)

	presenceHandlers := newPresenceHandlers(logger, presence, opts.LivenessWindow, opts.Now)
	api.PUT("/presence/:room/:user", presenceHandlers.updatePresence)
	api.POST("/presence/:room/:user/heartbeat", presenceHandlers.heartbeat)
	api.GET("/presence/:room", presenceHandlers.getPresence)

	return &Server{
		logger: logger,
		opts:   opts,
		router: router,
	}
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + that.opts.Port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		that.logger.Info("HTTP server listening", "port", that.opts.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), that.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	that.logger.Info("HTTP server stopped")

	return nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowAll || slices.Contains(origins, origin)
		},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}
