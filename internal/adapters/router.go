package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/AaronDB2/zoom-clone-backend/internal/app"
	"github.com/AaronDB2/zoom-clone-backend/internal/config"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// CORSMiddleware lets the browser client (served elsewhere) hit the query
// endpoint and open the socket.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter wires HTTP routes (REST + WS) with the orchestrator.
func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.AllowedOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Signaling server is healthy.")
	})

	api := r.Group("/api")

	// Advisory existence/capacity check clients run before joining.
	api.GET("/room-exists/:roomId", func(c *gin.Context) {
		status := orch.Rooms.Status(domain.RoomID(c.Param("roomId")))
		if !status.Exists {
			c.JSON(http.StatusOK, gin.H{"roomExists": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomExists": true, "full": status.Full})
	})

	ctl := &WSController{Orch: orch, Cfg: cfg}
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	log.Info().Str("module", "adapters.router").Str("origin", cfg.AllowedOrigin).Msg("router setup")
	return r
}
