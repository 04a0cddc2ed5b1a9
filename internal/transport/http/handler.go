package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leomorpho/bonfire-sub000/internal/notify"
	"github.com/leomorpho/bonfire-sub000/internal/store"
)

func RegisterHandlers(r *gin.Engine, engine *notify.Engine, st store.Interface) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.GET("/queue/stats", queueStatsHandler(st))
		v1.GET("/users/:id/unread_count", unreadCountHandler(engine))
	}
}

func queueStatsHandler(st store.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := st.PendingQueueCount(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending": pending})
	}
}

func unreadCountHandler(engine *notify.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := engine.UnreadCount(c, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}
