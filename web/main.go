package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	attend "rosterhub.com/rosterhub/attend/core"
	"rosterhub.com/rosterhub/attend/web/handlers"
	"rosterhub.com/rosterhub/core"
	"rosterhub.com/rosterhub/infrastructure/devops"
	"rosterhub.com/rosterhub/logger"
	"rosterhub.com/rosterhub/web/middlewares"
)

func main() {
	zlog, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "rosterhub")
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	cfg, err := devops.LoadConfig(ctx)
	if err != nil {
		zlog.Fatal("failed to load configuration", zap.Error(err))
	}

	dm, err := core.New(cfg.DSN, 10, core.LogLevelWarn)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dm.Close()

	jwtSecret, err := base64.StdEncoding.DecodeString(cfg.SigningSecret)
	if err != nil {
		zlog.Fatal("failed to decode JWT secret", zap.Error(err))
	}

	clock := attend.SystemClock()

	var cooldown attend.CooldownGuard
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err), zap.String("addr", cfg.RedisAddr))
		}
		cooldown = attend.NewRedisCooldownGuard(client, clock)
		zlog.Info("using redis cooldown guard", zap.String("addr", cfg.RedisAddr))
	} else {
		cooldown = attend.NewMemoryCooldownGuard(clock)
		zlog.Info("using in-memory cooldown guard")
	}

	roster := attend.NewGormRosterStore(dm)
	workLogs := attend.NewGormWorkLogStore(dm)
	credentials := attend.NewGormCredentialStore(dm, clock)
	history := attend.NewGormHistoryRecorder(dm)

	scanner := attend.NewScanner(roster, cooldown, workLogs, credentials, history, clock, zlog)

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/rosterhub/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		handlers.Register(protected, dm, scanner, credentials, clock, cfg.ExportBucket, zlog)
	}

	zlog.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
