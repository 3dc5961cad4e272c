package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/http/middleware"
	"schoolbus/internal/repositories"
	"schoolbus/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type DriverFinder interface {
	FindByLogin(ctx context.Context, login string) (repositories.DriverAccount, error)
}

// AuthHandler issues driver tokens.
type AuthHandler struct {
	Drivers DriverFinder
	Secret  []byte
	TTL     time.Duration
	Clock   utils.Clock
}

// AuthDriver is the user payload of a login response.
type AuthDriver struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	reqID := middleware.GetRequestID(c)

	driver, err := h.Drivers.FindByLogin(c.Request.Context(), strings.TrimSpace(req.Login))
	if err != nil {
		if domain.IsNotFound(err) {
			RespondError(c, http.StatusUnauthorized, "invalid login or password", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte(req.Password)); err != nil {
		utils.LogEvent(reqID, "auth", "login_failed", "driver_id="+itoa(driver.ID))
		RespondError(c, http.StatusUnauthorized, "invalid login or password", nil)
		return
	}
	if !strings.EqualFold(strings.TrimSpace(driver.Status), "active") {
		RespondError(c, http.StatusForbidden, "driver account is not active", nil)
		return
	}

	token, err := middleware.IssueToken(h.Secret, driver.ID, middleware.RoleDriver, h.Clock.Now(), h.TTL)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}

	utils.LogEvent(reqID, "auth", "login", "driver_id="+itoa(driver.ID))
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": AuthDriver{
			ID:       driver.ID,
			Name:     utils.FirstNonEmpty(driver.Name, driver.Username),
			Username: driver.Username,
			Phone:    driver.Phone,
			Role:     middleware.RoleDriver,
		},
	})
}
