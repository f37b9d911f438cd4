package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/techyouandme/TempTelegram/internal/config"
	"github.com/techyouandme/TempTelegram/internal/metrics"
	"github.com/techyouandme/TempTelegram/internal/mw"
	"github.com/techyouandme/TempTelegram/internal/store"
	"github.com/techyouandme/TempTelegram/internal/ws"
)

// SetupRouter wires middleware, the REST control endpoints and the
// websocket endpoint onto one gin engine.
func SetupRouter(cfg config.Config, st *store.Store, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env, cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Temp Telegram Backend is running") })

	h := NewHandler(st)
	api := r.Group("/api")
	// Room creation and join get their own per-IP budgets so an abusive
	// client cannot churn codes or brute-force passwords.
	api.POST("/rooms",
		mw.RateLimit(rate.Every(time.Minute/time.Duration(cfg.CreateRoomPerMinute)), cfg.CreateRoomPerMinute),
		h.CreateRoom)
	api.POST("/rooms/join",
		mw.RateLimit(rate.Every(time.Minute/time.Duration(cfg.JoinRoomPerMinute)), cfg.JoinRoomPerMinute),
		h.JoinRoom)

	r.GET("/ws", ws.Serve(hub, st))

	return r
}
