// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/auth"
	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/session"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	deps, err := setupDependencies(ctx, cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()

	router, err := newRouter(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting API server on %s (mode: %s, sessions: %s)", server.Addr, cfg.GinMode, cfg.SessionStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "session-auth",
		"version": "0.1.0",
	})
}

// newRouter は Gin ルーターを作成し、ミドルウェアとルートを登録します。
func newRouter(cfg *config.Config, deps *dependencies) (*gin.Engine, error) {
	router := gin.Default()

	// X-Forwarded-For を信頼するのは設定したプロキシ経由の場合のみ。
	// 既定ではどのプロキシも信頼せず、接続元アドレスをクライアントIPとする
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, deps)
	return router, nil
}

// setupRoutes はヘルスチェックと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, deps *dependencies) {
	router.GET("/health", handleHealth)

	cookie := session.NewCookieBinding(cfg.SessionName, cfg.SecureCookies(), cfg.SessionTTL())
	limiter := auth.NewLimiter(
		cfg.LoginMaxAttempts,
		time.Duration(cfg.LoginWindowMinutes)*time.Minute,
		time.Duration(cfg.LoginLockMinutes)*time.Minute,
	)
	handler := auth.NewHandler(deps.manager, cookie, limiter, log.Default())
	handler.RegisterRoutes(router)
}
