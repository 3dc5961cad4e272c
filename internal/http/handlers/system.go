package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	intdb "schoolbus/internal/db"
	"schoolbus/internal/repositories"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for /api/routes.
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "schoolbus api running"})
}

// SystemHandler reports on the store.
type SystemHandler struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (h SystemHandler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		RespondError(c, http.StatusInternalServerError, "database not connected", nil)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		RespondError(c, http.StatusInternalServerError, "database ping failed", err)
		return
	}
	missing := intdb.MissingTables(ctx, h.DB, h.Dialect, repositories.CoreTables...)
	if len(missing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message":        "database reachable but schema incomplete",
			"missing_tables": missing,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database OK", "driver": string(h.Dialect)})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		RespondError(c, http.StatusServiceUnavailable, "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
