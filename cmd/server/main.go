package main

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/bot"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/config"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/db"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/events"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/logger"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/repository"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/server"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/session"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/telemetry"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfgPath := flag.StringP("config", "c", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, os.Stdout); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	// Create storage and event bus
	var (
		gameRepo repository.GameRepository
		bus      events.Bus
	)
	switch cfg.Store.Driver {
	case config.StoreRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()
		gameRepo = repository.NewGameRepository(rdb, cfg.Session.TTL)
		bus = events.NewRedisBus(rdb)
	default:
		gameRepo = repository.NewMemoryGameRepository(cfg.Session.TTL)
		bus = events.NewMemoryBus()
	}
	slog.Info("Game store ready", "store.driver", cfg.Store.Driver)

	// Create services
	games, err := session.NewService(gameRepo, bus, bot.NewPlayer(cfg.Bot.ThinkTime, nil),
		session.WithBotTimeout(cfg.Bot.ThinkTime+session.BotReplyGrace))
	if err != nil {
		log.Fatalf("failed to create game service: %v", err)
	}

	// Create controllers
	gameController := controller.NewGameController(games, cfg.DefaultDifficulty())

	// Create the Gin-based server
	srv := server.NewServer(games, bus, gameController, cfg.Server.AllowedOrigins)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: otelhttp.NewHandler(srv.Engine(), "http.server"),
	}

	go func() {
		slog.Info("http server started", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
}
