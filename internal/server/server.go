package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/metrics"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/threads"
	"github.com/emilythestrangee/forum/backend/internal/voting"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	handler *handlers.Handler
	tokens  *auth.Tokens
	metrics *metrics.Metrics
	limiter *middleware.IPRateLimiter
	log     *zap.Logger
}

// New wires every component around the shared database handle.
func New(cfg *config.Config, db database.Service, log *zap.Logger) *Server {
	gdb := db.GetDB()
	m := metrics.New()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	ledger := voting.NewLedger(database.NewVoteStore(gdb), log.Named("voting"), voting.WithObserver(m))
	assembler := threads.NewAssembler(database.NewCommentStore(gdb))

	return &Server{
		cfg: cfg,
		db:  db,
		handler: handlers.NewHandler(handlers.Deps{
			DB:        gdb,
			Tokens:    tokens,
			Ledger:    ledger,
			Assembler: assembler,
			Comments:  m,
			Log:       log.Named("http"),
		}),
		tokens:  tokens,
		metrics: m,
		limiter: middleware.NewIPRateLimiter(rate.Limit(cfg.WriteRateRPS), cfg.WriteRateBurst),
		log:     log,
	}
}

// HTTPServer builds the listener configuration.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run serves until ctx is cancelled, then drains for up to 5 seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := s.HTTPServer()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.limiter.Prune(10 * time.Minute)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(s.log.Named("access")), s.metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: s.cfg.CORSOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health(c.Request.Context())
		if stats["status"] != "up" {
			c.JSON(http.StatusServiceUnavailable, stats)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	h := s.handler
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)

		// Public reads
		api.GET("/posts", h.Post.GetPosts)
		api.GET("/posts/:id", h.Post.GetPost)
		api.GET("/posts/:id/comments", h.Comment.GetComments)

		api.GET("/communities", h.Community.GetCommunities)
		api.GET("/communities/:id", h.Community.GetCommunity)
		api.GET("/communities/name/:name", h.Community.GetCommunityByName)
		api.GET("/communities/:id/posts", h.Community.GetCommunityPosts)

		api.GET("/users/:id", h.User.GetUserProfile)
		api.GET("/users/:id/followers", h.User.GetFollowers)
		api.GET("/users/:id/following", h.User.GetFollowing)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.GET("/posts/:id/vote", h.Vote.Current(models.TargetPost, "id"))
			protected.GET("/comments/:commentId/vote", h.Vote.Current(models.TargetComment, "commentId"))

			// Writes share a per-IP budget.
			writes := protected.Group("")
			writes.Use(middleware.RateLimitMiddleware(s.limiter))
			{
				writes.POST("/posts", h.Post.CreatePost)
				writes.PUT("/posts/:id", h.Post.UpdatePost)
				writes.DELETE("/posts/:id", h.Post.DeletePost)
				writes.POST("/posts/:id/vote", h.Vote.Cast(models.TargetPost, "id"))

				writes.POST("/posts/:id/comments", h.Comment.CreateComment)
				writes.PUT("/comments/:commentId", h.Comment.UpdateComment)
				writes.DELETE("/comments/:commentId", h.Comment.DeleteComment)
				writes.POST("/comments/:commentId/vote", h.Vote.Cast(models.TargetComment, "commentId"))

				writes.POST("/communities", h.Community.CreateCommunity)
				writes.POST("/communities/:id/join", h.Community.JoinCommunity)
				writes.DELETE("/communities/:id/leave", h.Community.LeaveCommunity)

				writes.PUT("/users/:id", h.User.UpdateUserProfile)
				writes.POST("/users/:id/follow", h.User.FollowUser)
				writes.DELETE("/users/:id/follow", h.User.UnfollowUser)
			}
		}
	}

	return r
}
