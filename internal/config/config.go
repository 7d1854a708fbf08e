package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/palemoky/werewolf/internal/game/engine"
	"github.com/palemoky/werewolf/internal/game/session"
)

// 运行环境
const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// 平台
const (
	PlatformDiscord = "discord"
	PlatformSandbox = "sandbox"
)

// 存储驱动
const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageNone   = "none"
)

// Config 机器人配置
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Discord   DiscordConfig   `yaml:"discord"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Storage   StorageConfig   `yaml:"storage"`
	Game      GameConfig      `yaml:"game"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// BotConfig 通用配置
type BotConfig struct {
	Env            string   `yaml:"env" env:"ENV"`
	Platform       string   `yaml:"platform" env:"PLATFORM"`
	AdminIDs       []string `yaml:"admin_ids" env:"ADMIN_IDS" envSeparator:","`
	DebugPlayerIDs []string `yaml:"debug_player_ids" env:"DEBUG_PLAYER_IDS" envSeparator:","`
	MainColor      int      `yaml:"main_color" env:"MAIN_COLOR"`
	ImageBaseURL   string   `yaml:"image_base_url" env:"IMAGE_BASE_URL"`
	LogDir         string   `yaml:"log_dir" env:"LOG_DIR"` // 为空时输出到 stderr
}

// DiscordConfig Discord 配置
type DiscordConfig struct {
	Token      string `yaml:"token" env:"DISCORD_TOKEN"`
	ClientID   string `yaml:"client_id" env:"DISCORD_CLIENT_ID"`
	DevGuildID string `yaml:"dev_guild_id" env:"DEV_GUILD_ID"`
}

// SandboxConfig 本地 WebSocket 沙盒配置
type SandboxConfig struct {
	Host    string `yaml:"host" env:"SANDBOX_HOST"`
	Port    int    `yaml:"port" env:"SANDBOX_PORT"`
	GuildID string `yaml:"guild_id" env:"SANDBOX_GUILD_ID"`
	// 沙盒中的服务器管理员，能看到所有频道
	AdminIDs       []string `yaml:"admin_ids" env:"SANDBOX_ADMIN_IDS" envSeparator:","`
	AllowedOrigins []string `yaml:"allowed_origins" env:"SANDBOX_ALLOWED_ORIGINS" envSeparator:","`
}

// Addr 监听地址
func (c *SandboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver     string      `yaml:"driver" env:"STORAGE_DRIVER"`
	Redis      RedisConfig `yaml:"redis"`
	SQLitePath string      `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// GameConfig 游戏配置，时长单位为秒
type GameConfig struct {
	WerewolfPhaseSeconds int    `yaml:"werewolf_phase_seconds" env:"WEREWOLF_PHASE_SECONDS"`
	DayPhaseSeconds      int    `yaml:"day_phase_seconds" env:"DAY_PHASE_SECONDS"`
	SeerPhaseSeconds     int    `yaml:"seer_phase_seconds" env:"SEER_PHASE_SECONDS"`
	EndPhaseSeconds      int    `yaml:"end_phase_seconds" env:"END_PHASE_SECONDS"`
	LobbyIdleSeconds     int    `yaml:"lobby_idle_seconds" env:"LOBBY_IDLE_SECONDS"`
	MinPlayers           int    `yaml:"min_players" env:"MIN_PLAYERS"`
	CategoryName         string `yaml:"category_name" env:"CATEGORY_NAME"`
	GeneralName          string `yaml:"general_name" env:"GENERAL_NAME"`
	DenName              string `yaml:"den_name" env:"DEN_NAME"`
}

// Timings 阶段时长
func (c *GameConfig) Timings() engine.Timings {
	return engine.Timings{
		Seer:     seconds(c.SeerPhaseSeconds),
		Werewolf: seconds(c.WerewolfPhaseSeconds),
		Day:      seconds(c.DayPhaseSeconds),
		End:      seconds(c.EndPhaseSeconds),
	}
}

// LobbyIdleDuration 大厅无操作超时
func (c *GameConfig) LobbyIdleDuration() time.Duration {
	return seconds(c.LobbyIdleSeconds)
}

// Names 游戏频道名称
func (c *GameConfig) Names() session.Names {
	return session.Names{Category: c.CategoryName, General: c.GeneralName, Den: c.DenName}
}

// RateLimitConfig 玩家操作限流
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"RATE_LIMIT_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	BanSeconds   int `yaml:"ban_seconds" env:"RATE_LIMIT_BAN_SECONDS"`
}

// BanDuration 封禁时长
func (c *RateLimitConfig) BanDuration() time.Duration {
	return seconds(c.BanSeconds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Load 加载配置文件，再依次应用 dotenv 文件与环境变量。
// path 为空时只使用默认值和环境变量。
func Load(path, dotenvPath string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(dotenvPath); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadDotEnv 加载 dotenv 文件，文件不存在时忽略。已有的环境变量不会被覆盖。
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// applyDefaults 设置默认值。dev 环境下阶段时长缩短。
func (c *Config) applyDefaults() {
	d := Default()
	if c.Bot.Env == "" {
		c.Bot.Env = d.Bot.Env
	}

	if c.Bot.Env == EnvDev {
		d.Game.WerewolfPhaseSeconds = 20
		d.Game.DayPhaseSeconds = 30
		d.Game.SeerPhaseSeconds = 15
		d.Game.EndPhaseSeconds = 60
		d.Game.LobbyIdleSeconds = 120
	}

	setDefault(&c.Bot.Platform, d.Bot.Platform)
	setDefault(&c.Bot.MainColor, d.Bot.MainColor)
	setDefault(&c.Sandbox.Host, d.Sandbox.Host)
	setDefault(&c.Sandbox.Port, d.Sandbox.Port)
	setDefault(&c.Sandbox.GuildID, d.Sandbox.GuildID)
	setDefault(&c.Storage.Driver, d.Storage.Driver)
	setDefault(&c.Storage.Redis.Addr, d.Storage.Redis.Addr)
	setDefault(&c.Storage.SQLitePath, d.Storage.SQLitePath)
	setDefault(&c.Game.WerewolfPhaseSeconds, d.Game.WerewolfPhaseSeconds)
	setDefault(&c.Game.DayPhaseSeconds, d.Game.DayPhaseSeconds)
	setDefault(&c.Game.SeerPhaseSeconds, d.Game.SeerPhaseSeconds)
	setDefault(&c.Game.EndPhaseSeconds, d.Game.EndPhaseSeconds)
	setDefault(&c.Game.LobbyIdleSeconds, d.Game.LobbyIdleSeconds)
	setDefault(&c.Game.MinPlayers, d.Game.MinPlayers)
	setDefault(&c.Game.CategoryName, d.Game.CategoryName)
	setDefault(&c.Game.GeneralName, d.Game.GeneralName)
	setDefault(&c.Game.DenName, d.Game.DenName)
	setDefault(&c.RateLimit.MaxPerSecond, d.RateLimit.MaxPerSecond)
	setDefault(&c.RateLimit.MaxPerMinute, d.RateLimit.MaxPerMinute)
	setDefault(&c.RateLimit.BanSeconds, d.RateLimit.BanSeconds)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Default 返回默认配置
func Default() *Config {
	timings := engine.DefaultTimings()
	names := session.DefaultNames()
	return &Config{
		Bot: BotConfig{
			Env:       EnvProd,
			Platform:  PlatformDiscord,
			MainColor: 0x5865F2,
		},
		Sandbox: SandboxConfig{
			Host:    "0.0.0.0",
			Port:    1780,
			GuildID: "sandbox",
		},
		Storage: StorageConfig{
			Driver:     StorageRedis,
			Redis:      RedisConfig{Addr: "localhost:6379"},
			SQLitePath: "werewolf.db",
		},
		Game: GameConfig{
			WerewolfPhaseSeconds: int(timings.Werewolf / time.Second),
			DayPhaseSeconds:      int(timings.Day / time.Second),
			SeerPhaseSeconds:     int(timings.Seer / time.Second),
			EndPhaseSeconds:      int(timings.End / time.Second),
			LobbyIdleSeconds:     int(session.DefaultLobbyIdle / time.Second),
			MinPlayers:           2,
			CategoryName:         names.Category,
			GeneralName:          names.General,
			DenName:              names.Den,
		},
		RateLimit: RateLimitConfig{
			MaxPerSecond: 5,
			MaxPerMinute: 60,
			BanSeconds:   60,
		},
	}
}

// Validate 检查必填项
func (c *Config) Validate() error {
	var errs []error
	switch c.Bot.Env {
	case EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", c.Bot.Env))
	}

	switch c.Bot.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			errs = append(errs, errors.New("missing DISCORD_TOKEN"))
		}
		if c.Discord.ClientID == "" {
			errs = append(errs, errors.New("missing DISCORD_CLIENT_ID"))
		}
		if c.Bot.Env == EnvDev && c.Discord.DevGuildID == "" {
			errs = append(errs, errors.New("missing DEV_GUILD_ID"))
		}
	case PlatformSandbox:
	default:
		errs = append(errs, fmt.Errorf("unknown platform %q", c.Bot.Platform))
	}

	switch c.Storage.Driver {
	case StorageRedis, StorageSQLite, StorageNone:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Game.MinPlayers < 2 {
		errs = append(errs, fmt.Errorf("min_players must be at least 2, got %d", c.Game.MinPlayers))
	}
	return errors.Join(errs...)
}

// IsAdmin 是否为管理员
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.Bot.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
