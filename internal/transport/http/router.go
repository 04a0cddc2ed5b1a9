package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leomorpho/bonfire-sub000/internal/config"
	"github.com/leomorpho/bonfire-sub000/internal/notify"
	"github.com/leomorpho/bonfire-sub000/internal/store"
)

// NewRouter builds the operational surface of the notifier process.
func NewRouter(engine *notify.Engine, st store.Interface, rl config.RateLimitConfig, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(rl.HTTPRPS, rl.HTTPBurst))
	RegisterHandlers(r, engine, st)
	return r
}
