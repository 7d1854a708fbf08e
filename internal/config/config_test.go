package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", `
bot:
  env: prod
  platform: sandbox
  admin_ids: ["1", "2"]
  main_color: 255

sandbox:
  host: "127.0.0.1"
  port: 8080
  admin_ids: ["9"]
  allowed_origins: ["http://localhost"]

storage:
  driver: sqlite
  sqlite_path: /tmp/users.db

game:
  werewolf_phase_seconds: 90
  day_phase_seconds: 240
  seer_phase_seconds: 45
  end_phase_seconds: 300
  min_players: 4
  general_name: square

rate_limit:
  max_per_second: 20
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, PlatformSandbox, cfg.Bot.Platform)
	assert.Equal(t, []string{"1", "2"}, cfg.Bot.AdminIDs)
	assert.Equal(t, 255, cfg.Bot.MainColor)
	assert.Equal(t, "127.0.0.1:8080", cfg.Sandbox.Addr())
	assert.Equal(t, []string{"9"}, cfg.Sandbox.AdminIDs)
	assert.Equal(t, []string{"http://localhost"}, cfg.Sandbox.AllowedOrigins)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/users.db", cfg.Storage.SQLitePath)

	timings := cfg.Game.Timings()
	assert.Equal(t, 90*time.Second, timings.Werewolf)
	assert.Equal(t, 240*time.Second, timings.Day)
	assert.Equal(t, 45*time.Second, timings.Seer)
	assert.Equal(t, 5*time.Minute, timings.End)
	assert.Equal(t, 4, cfg.Game.MinPlayers)
	assert.Equal(t, "square", cfg.Game.Names().General)
	assert.Equal(t, Default().Game.DenName, cfg.Game.Names().Den)

	assert.Equal(t, 20, cfg.RateLimit.MaxPerSecond)
	assert.Equal(t, 60, cfg.RateLimit.MaxPerMinute)
	assert.Equal(t, time.Minute, cfg.RateLimit.BanDuration())

	assert.True(t, cfg.IsAdmin("2"))
	assert.False(t, cfg.IsAdmin("3"))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", "bot: [unclosed")
	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestLoad_DevShortensPhases(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", `
bot:
  env: dev
game:
  day_phase_seconds: 100
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Game.Timings().Werewolf)
	assert.Equal(t, 100*time.Second, cfg.Game.Timings().Day, "explicit values win over dev defaults")
	assert.Equal(t, 2*time.Minute, cfg.Game.LobbyIdleDuration())
}

// 环境变量测试不能并行
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-from-env")
	t.Setenv("ADMIN_IDS", "10,20")
	t.Setenv("DAY_PHASE_SECONDS", "42")
	t.Setenv("REDIS_ADDR", "redis:6379")

	path := writeFile(t, "config.yaml", `
discord:
  token: token-from-file
  client_id: client
game:
  day_phase_seconds: 100
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "token-from-env", cfg.Discord.Token)
	assert.Equal(t, "client", cfg.Discord.ClientID)
	assert.Equal(t, []string{"10", "20"}, cfg.Bot.AdminIDs)
	assert.Equal(t, 42*time.Second, cfg.Game.Timings().Day)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := writeFile(t, "config.env", "DISCORD_CLIENT_ID=from-dotenv\nSANDBOX_PORT=9999\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("DISCORD_CLIENT_ID")
		_ = os.Unsetenv("SANDBOX_PORT")
	})

	cfg, err := Load("", dotenv)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Discord.ClientID)
	assert.Equal(t, 9999, cfg.Sandbox.Port)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	t.Parallel()

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "config.env")))
	assert.NoError(t, LoadDotEnv(""))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, EnvProd, cfg.Bot.Env)
	assert.Equal(t, 120*time.Second, cfg.Game.Timings().Werewolf)
	assert.Equal(t, 300*time.Second, cfg.Game.Timings().Day)
	assert.Equal(t, 60*time.Second, cfg.Game.Timings().Seer)
	assert.Equal(t, 10*time.Minute, cfg.Game.Timings().End)
	assert.Equal(t, 10*time.Minute, cfg.Game.LobbyIdleDuration())
	assert.Equal(t, 2, cfg.Game.MinPlayers)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
	assert.Contains(t, err.Error(), "DISCORD_CLIENT_ID")

	cfg.Bot.Platform = PlatformSandbox
	assert.NoError(t, cfg.Validate())

	cfg.Bot.Env = EnvDev
	cfg.Bot.Platform = PlatformDiscord
	cfg.Discord.Token, cfg.Discord.ClientID = "t", "c"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEV_GUILD_ID")

	cfg.Bot.Platform = "irc"
	cfg.Storage.Driver = "mongo"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "irc")
	assert.Contains(t, err.Error(), "mongo")
}

func TestValidateMinPlayers(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Bot.Platform = PlatformSandbox
	cfg.Game.MinPlayers = 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_players")

	cfg.Game.MinPlayers = 2
	assert.NoError(t, cfg.Validate())
}
