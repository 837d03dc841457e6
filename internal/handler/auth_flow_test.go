package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Load()
	// The middleware must verify with the same secret the user service signs
	// with, including the development default.
	middleware.SetJWTSecret(cfg.JWT.Secret)

	userService := service.NewUserService(db, repository.NewUserRepository(db), cfg.JWT)
	router := gin.New()
	NewUserHandler(userService).RegisterRoutes(router.Group(""))

	if _, err := userService.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Role:     "EMPLOYEE",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return router
}

func TestLoginTokenIsAcceptedByAuthMiddleware(t *testing.T) {
	router := setupAuthRouter(t)

	body, _ := json.Marshal(map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Data.Token == "" {
		t.Fatal("login returned no token")
	}

	// The freshly issued token must pass the guard on a protected route.
	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("/api/auth/me with a just-issued token = %d, body %s", rec.Code, rec.Body.String())
	}

	var meResp struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &meResp); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if meResp.Data.Username != "alice" {
		t.Fatalf("me returned %q, want alice", meResp.Data.Username)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	router := setupAuthRouter(t)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}
}
