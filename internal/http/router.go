package api

import (
	"log"
	stdhttp "net/http"

	intconfig "schoolbus/internal/config"
	h "schoolbus/internal/http/handlers"
	"schoolbus/internal/http/middleware"
	"schoolbus/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Deps are the wired handlers the router mounts. Metrics is optional.
type Deps struct {
	System   h.SystemHandler
	Auth     h.AuthHandler
	Schedule h.ScheduleHandler
	Metrics  *metrics.Collector
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", deps.System.DBCheck)
		api.GET("/routes", h.Routes)

		auth := api.Group("/auth")
		auth.POST("/login", deps.Auth.Login)

		schedule := api.Group("/driver/schedule",
			middleware.DriverAuth([]byte(env.JWTSecret)),
			middleware.RequireRoles(middleware.RoleDriver),
		)
		mountSchedule(schedule, deps.Schedule)
	}

	h.SetRouter(r)
	return r
}

func mountSchedule(g *gin.RouterGroup, s h.ScheduleHandler) {
	g.GET("/today", s.Today)
	g.GET("/active-route", s.ActiveRoute)
	g.POST("/start", s.Start)
	g.POST("/complete", s.Complete)
	g.GET("/students", s.Students)
	g.POST("/students/:studentId/attend", s.Attend)
	g.DELETE("/students/:studentId/attend", s.UndoAttend)
	g.GET("/manifest.pdf", s.ManifestPDF)
}
