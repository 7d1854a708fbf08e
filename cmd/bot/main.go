package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/werewolf/internal/bot"
	"github.com/palemoky/werewolf/internal/config"
	"github.com/palemoky/werewolf/internal/logger"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/platform/discord"
	"github.com/palemoky/werewolf/internal/platform/sandbox"
	"github.com/palemoky/werewolf/internal/ratelimit"
	"github.com/palemoky/werewolf/internal/storage"
	"github.com/palemoky/werewolf/internal/storage/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envPath := flag.String("env", "config.env", "dotenv 文件路径")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(configPath, envPath string) error {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		log.Printf("配置文件 %s 不存在，使用默认配置", configPath)
		configPath = ""
	}
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	if err := logger.Init(cfg.Bot.LogDir); err != nil {
		return err
	}
	defer logger.Close()

	log.Println("🐺 狼人杀机器人启动中...")

	users, stats, store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxPerSecond, cfg.RateLimit.MaxPerMinute, cfg.RateLimit.BanDuration())
	defer limiter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := bot.Deps{Config: cfg, Users: users, Stats: stats, Limiter: limiter}

	switch cfg.Bot.Platform {
	case config.PlatformSandbox:
		return runSandbox(ctx, cfg, deps)
	default:
		return runDiscord(ctx, cfg, deps)
	}
}

// openStorage 打开用户记录和战绩存储。sqlite 只保存用户记录。
func openStorage(cfg *config.Config) (platform.UserStore, bot.StatsStore, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		log.Printf("📦 已连接 Redis %s", cfg.Storage.Redis.Addr)
		return store, storage.NewLeaderboardManager(rdb), store, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("打开 sqlite 失败: %w", err)
		}
		log.Printf("📦 已打开 sqlite %s", cfg.Storage.SQLitePath)
		return store, nil, store, nil

	default:
		log.Println("📦 未启用存储")
		return nil, nil, nil, nil
	}
}

func runSandbox(ctx context.Context, cfg *config.Config, deps bot.Deps) error {
	sb := sandbox.New(sandbox.Options{
		Addr:           cfg.Sandbox.Addr(),
		GuildID:        cfg.Sandbox.GuildID,
		AdminIDs:       cfg.Sandbox.AdminIDs,
		AllowedOrigins: cfg.Sandbox.AllowedOrigins,
	})
	deps.Platform = sb
	b := bot.New(deps)
	sb.SetHandler(b)

	errCh := make(chan error, 1)
	go func() { errCh <- sb.ListenAndServe() }()
	b.Start(ctx)

	select {
	case err := <-errCh:
		b.Close()
		return err
	case <-ctx.Done():
	}

	log.Println("正在关闭机器人...")
	b.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sb.Shutdown(shutdownCtx)
}

func runDiscord(ctx context.Context, cfg *config.Config, deps bot.Deps) error {
	// dev 环境命令只注册到测试服务器，立即生效
	commandGuild := ""
	if cfg.Bot.Env == config.EnvDev {
		commandGuild = cfg.Discord.DevGuildID
	}

	dg, err := discord.New(cfg.Discord.Token, cfg.Discord.ClientID, commandGuild)
	if err != nil {
		return err
	}
	deps.Platform = dg
	b := bot.New(deps)
	dg.SetHandler(b)

	if err := dg.Open(ctx); err != nil {
		return err
	}
	b.Start(ctx)

	<-ctx.Done()
	log.Println("正在关闭机器人...")
	b.Close()
	return dg.Close()
}
