package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/config"
	"github.com/ButyrinIA/socialfeed/internal/metrics"
	"github.com/ButyrinIA/socialfeed/internal/service"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "socialfeed"

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Feed     *service.Feed
	Auth     *service.Authenticator
	Hub      *service.Hub
	Store    storage.Storage
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type Server struct {
	cfg      *config.Config
	deps     Deps
	limiter  *clientLimiter
	upgrader websocket.Upgrader
	handler  http.Handler
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		limiter: newClientLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		s.observe(),
		s.authorLoader(),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	api.POST("/auth/token", s.rateLimit(), s.issueToken)
	api.GET("/posts", s.listPosts)
	api.GET("/posts/:id", s.getPost)
	api.GET("/posts/:id/comments/ws", s.streamComments)
	api.GET("/leaderboard", s.leaderboard)

	write := api.Group("", s.requireAuth(), s.rateLimit())
	write.POST("/posts", s.createPost)
	write.POST("/comments", s.createComment)
	write.POST("/posts/:id/like", s.likePost)
	write.POST("/comments/:id/like", s.likeComment)

	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(engine)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.deps.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
