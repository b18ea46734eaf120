package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "LIBRA-backend/docs"
	"LIBRA-backend/internal/accounts/roles"
	"LIBRA-backend/internal/accounts/users"
	"LIBRA-backend/internal/catalog/books"
	"LIBRA-backend/internal/catalog/categories"
	"LIBRA-backend/internal/circulation/accrual"
	"LIBRA-backend/internal/circulation/fines"
	"LIBRA-backend/internal/circulation/histories"
	"LIBRA-backend/internal/circulation/loans"
	"LIBRA-backend/internal/circulation/reservations"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	if cfg.Auth.Secret == "" {
		log.Fatal("auth.secret must be set in config/config.yaml")
	}
	secret := []byte(cfg.Auth.Secret)

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	// 罰金ポリシーと再計算エンジン
	policy, err := accrual.PolicyFromConfig(cfg.Accrual)
	if err != nil {
		log.Fatal(err)
	}
	engine := accrual.NewEngine(conn, policy, time.Duration(cfg.Accrual.TimeoutSeconds)*time.Second)

	var scheduler *accrual.Scheduler
	if cfg.Accrual.IntervalMinutes > 0 {
		scheduler = accrual.NewScheduler(engine, time.Duration(cfg.Accrual.IntervalMinutes)*time.Minute)
		scheduler.Start()
		log.Printf("[INFO] fine reconcile scheduler: every %dmin", cfg.Accrual.IntervalMinutes)
	}

	authSvc := auth.NewService(conn, secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	userSvc := users.NewService(conn)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// /api/v1
	api := r.Group("/api/v1")

	// 認証なし
	auth.RegisterRoutes(api, authSvc)
	users.RegisterPublicRoutes(api, userSvc)

	// 要認証
	authed := api.Group("", auth.RequireAuth(secret, authSvc.Blacklist()))
	auth.RegisterProtectedRoutes(authed, authSvc)
	users.RegisterRoutes(authed, userSvc)
	roles.RegisterRoutes(authed, roles.NewService(conn))
	categories.RegisterRoutes(authed, categories.NewService(conn))
	books.RegisterRoutes(authed, books.NewService(conn))
	loans.RegisterRoutes(authed, loans.NewService(conn, policy))
	reservations.RegisterRoutes(authed, reservations.NewService(conn))
	histories.RegisterRoutes(authed, histories.NewService(conn))
	fines.RegisterRoutes(authed, fines.NewService(conn))

	// 再計算の手動トリガは admin のみ
	admin := authed.Group("", auth.RequireRole("admin"))
	accrual.RegisterRoutes(admin, engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
