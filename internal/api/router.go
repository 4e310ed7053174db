// Package api exposes the agent and the catalog search over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/observability"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/search"
	"restaurant-agent/internal/session"
)

// TurnHandler runs one conversation turn.
type TurnHandler interface {
	Handle(ctx context.Context, message string, current models.ConversationContext) models.ChatResponse
}

// ContextStore persists contexts and serializes turns per conversation.
type ContextStore interface {
	Get(ctx context.Context, conversationID string) (models.ConversationContext, error)
	Save(ctx context.Context, conversationID string, c models.ConversationContext) error
	Clear(ctx context.Context, conversationID string) error
	Lock(ctx context.Context, conversationID string) (*session.Lock, error)
	Unlock(ctx context.Context, l *session.Lock) error
	Ping(ctx context.Context) error
}

type Options struct {
	TurnTimeout       time.Duration
	RequestsPerMinute int
	Burst             int
	AllowedOrigins    []string
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are honored. Empty trusts no proxy.
	TrustedProxies []string
}

// Dependencies wires the router. Store is optional: without it callers must
// round-trip the context themselves and turns are not serialized.
type Dependencies struct {
	Agent         TurnHandler
	Engine        *search.Engine
	Store         ContextStore
	Observability *observability.Observability
	Logger        logger.Logger
	Options       Options
}

type Server struct {
	agent       TurnHandler
	engine      *search.Engine
	store       ContextStore
	obs         *observability.Observability
	turnTimeout time.Duration
	logger      logger.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger.With(map[string]interface{}{"component": "api"})
	s := &Server{
		agent:       deps.Agent,
		engine:      deps.Engine,
		store:       deps.Store,
		obs:         deps.Observability,
		turnTimeout: deps.Options.TurnTimeout,
		logger:      log,
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.Options.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", map[string]interface{}{"error": err.Error()})
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(Recovery(log), RequestLogger(log))
	r.Use(cors.New(corsConfig(deps.Options.AllowedOrigins)))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("")
	limited.Use(RateLimit(deps.Options.RequestsPerMinute, deps.Options.Burst, log))
	{
		limited.POST("/agents/chat", s.chat)
		limited.DELETE("/agents/chat/:conversationId", s.clearConversation)
		limited.GET("/search", s.search)
		limited.GET("/search/restaurants", s.listRestaurants)
		limited.GET("/restaurants/:id", s.getRestaurant)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", conversationIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	if s.engine == nil || s.engine.Catalog().Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "catalog empty"})
		return
	}
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "session store unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "restaurants": s.engine.Catalog().Len()})
}
