// Package main, unread aggregator servisinin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1.  Config'i yükle
//   2.  Logger'ı oluştur
//   3.  Database'i başlat (embed edilmiş migration'lar ile)
//   4.  Repository'leri oluştur
//   5.  Change feed broker'ı ve WebSocket Hub'ı başlat
//   6.  Unread aggregator'ı kur (counter + session manager + rate limiter)
//   7.  Service'leri, handler'ları ve route'ları bağla
//   8.  CORS + access log
//   9.  HTTP Server'ı başlat
//  10.  Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
//
// Ek olarak "token" alt komutu geliştirme için JWT üretir:
//
//	unread token <userID> [username]
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/unread/config"
	"github.com/akinalp/unread/database"
	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/middleware"
	"github.com/akinalp/unread/pkg/logger"
	"github.com/akinalp/unread/services"
	"github.com/akinalp/unread/ws"
)

func main() {
	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// ─── 2. Logger ───
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("unread server starting", zap.Int("port", cfg.Server.Port))

	// ─── 3. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations(), log.Named("database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// ─── 4. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 5. Change feed + WebSocket Hub ───
	broker := feed.NewBroker(feed.DefaultBufferSize, log.Named("feed"))
	defer broker.Close()

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run()

	// ─── 6. Unread aggregator ───
	stack := initUnread(cfg, repos, broker, unreadPushCallback(hub), log.Named("unread"))
	defer stack.Close()

	// ─── 7. Services, Handlers, Routes ───
	svcs := initServices(cfg, db.Conn, repos, broker, stack, log)
	h := initHandlers(svcs, hub, stack, broker, cfg, log.Named("ws"))

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Token)

	// ─── 8. CORS + access log ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})
	handler := middleware.AccessLog(log.Named("http"))(corsHandler.Handler(mux))

	// ─── 9. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		hub.Shutdown()
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("shutting down")

	// Önce WebSocket bağlantılarını kapat — client'lar "server shutting down" bilir.
	// Sonra HTTP server'ı kapat — yeni request kabul etmeyi durdurur,
	// mevcut request'lerin bitmesini bekler (5sn timeout).
	// Kalan defer'lar sırasıyla session'ları, broker'ı ve DB'yi kapatır.
	log.Info("closing websocket connections",
		zap.Int("online_users", len(hub.GetOnlineUserIDs())),
		zap.Int("unread_sessions", stack.Manager.Len()))
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// issueToken, verilen kullanıcı için access token basar.
func issueToken(cfg *config.Config, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return errors.New("usage: unread token <userID> [username]")
	}
	username := args[0]
	if len(args) > 1 {
		username = args[1]
	}

	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	token, err := tokens.Issue(args[0], username)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
