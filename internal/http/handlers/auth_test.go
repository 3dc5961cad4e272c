package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/http/middleware"
	"schoolbus/internal/repositories"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type stubDrivers map[string]repositories.DriverAccount

func (s stubDrivers) FindByLogin(_ context.Context, login string) (repositories.DriverAccount, error) {
	d, ok := s[login]
	if !ok {
		return repositories.DriverAccount{}, domain.NotFoundError{Resource: "driver"}
	}
	return d, nil
}

func newAuthEngine(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	drivers := stubDrivers{
		"budi": {ID: 7, Name: "Budi", Username: "budi", PasswordHash: string(hash), Status: "active"},
		"joko": {ID: 8, Name: "Joko", Username: "joko", PasswordHash: string(hash), Status: "suspended"},
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	h := AuthHandler{Drivers: drivers, Secret: testSecret, TTL: time.Hour, Clock: fixedClock{now: time.Now()}}
	r.POST("/api/auth/login", h.Login)
	return r
}

func postLogin(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesDriverToken(t *testing.T) {
	r := newAuthEngine(t)
	rec := postLogin(r, `{"login":"budi","password":"rahasia"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	token, _ := body["token"].(string)
	claims, err := middleware.ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.DriverID != 7 || claims.Role != middleware.RoleDriver {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginFailures(t *testing.T) {
	r := newAuthEngine(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"login":"budi","password":"salah"}`, http.StatusUnauthorized},
		{"unknown driver", `{"login":"nobody","password":"rahasia"}`, http.StatusUnauthorized},
		{"inactive driver", `{"login":"joko","password":"rahasia"}`, http.StatusForbidden},
		{"missing password", `{"login":"budi"}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postLogin(r, tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
