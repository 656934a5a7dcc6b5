package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HoldemRoom/config"
	"HoldemRoom/internal/ai"
	"HoldemRoom/internal/game/manager"
	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/lobby"
	"HoldemRoom/internal/storage"
	"HoldemRoom/internal/utils"
	"HoldemRoom/internal/websocket"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"config/config.yaml" help:"Path to YAML configuration file"`
	Port     string `short:"p" long:"port" help:"Listen address, e.g. :3001 (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	if err := config.Load(CLI.Config); err != nil {
		utils.Log.Error("load config", "path", CLI.Config, "err", err)
		kctx.Exit(1)
	}
	if CLI.Port != "" {
		config.C.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		config.C.Log.Level = CLI.LogLevel
	}
	utils.Init(config.C.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		utils.Log.Error("server stopped", "err", err)
		kctx.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := utils.Logger("main")
	clock := quartz.NewReal()

	//-------------------------------------------------------
	// 1. 大厅目录：配置了 Redis 就用 Redis，否则内存
	//-------------------------------------------------------
	repo := lobby.NewMemoryRepo()
	if config.C.Redis.Addr != "" {
		rdb, err := storage.NewRedis(ctx, config.C.Redis.Addr, config.C.Redis.Password, config.C.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		repo = lobby.NewRedisRepo(rdb)
		logger.Info("lobby uses redis", "addr", config.C.Redis.Addr)
	}
	lobbySvc := lobby.NewService(repo, config.C.Lobby.TTL, clock)

	//-------------------------------------------------------
	// 2. AI 策略：外部服务或内置启发式
	//-------------------------------------------------------
	var policy ai.Policy = ai.NewHeuristic(time.Now().UnixNano())
	if config.C.AI.URL != "" {
		policy = ai.NewClient(config.C.AI.URL, config.C.AI.Timeout)
		logger.Info("ai uses remote policy", "url", config.C.AI.URL)
	}

	//-------------------------------------------------------
	// 3. Hub + GameManager
	//-------------------------------------------------------
	hub := websocket.NewHub()
	gameMgr := manager.NewGameManager(manager.Options{
		Hub:        hub,
		Policy:     policy,
		Clock:      clock,
		ThinkDelay: config.C.AI.ThinkDelay,
		Lobby:      lobbySvc,
		Table: table.Options{
			MaxPlayers:   config.C.Game.MaxPlayers,
			SmallBlind:   config.C.Game.SmallBlind,
			BigBlind:     config.C.Game.BigBlind,
			InitialChips: config.C.Game.InitialChips,
		},
	})
	hub.OnIncoming = gameMgr.HandlePlayerMessage
	hub.OnDisconnect = gameMgr.Disconnect

	srv := &http.Server{
		Addr:              config.C.Server.Port,
		Handler:           newRouter(hub, lobby.NewHandler(lobbySvc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	//-------------------------------------------------------
	// 4. 启动：hub、大厅写入、HTTP，任一退出则整体退出
	//-------------------------------------------------------
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return lobbySvc.Run(gctx) })
	g.Go(func() error {
		logger.Info("server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		gameMgr.Shutdown()
		hub.Close()
		return err
	})
	return g.Wait()
}

func newRouter(hub *websocket.Hub, rooms *lobby.Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", websocket.ServeWS(hub))
	r.GET("/rooms", rooms.List)
	r.GET("/rooms/:id", rooms.Get)
	return r
}
